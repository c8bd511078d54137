// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package mlclient is the gRPC client for the ML service: batch embedding,
// cross-encoder reranking, and streaming generation. This file hand-rolls
// the service stub — no protoc step, a grpc.ServiceDesc built by hand
// against plain Go structs carrying the legacy proto.Message methods the
// default codec requires.
package mlclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// EmbedRequest asks the ML service to embed a batch of texts.
type EmbedRequest struct {
	Texts []string
	Model string
}

// EmbedResponse carries one vector per input text, same order.
type EmbedResponse struct {
	Embeddings [][]float32
}

// RerankDocument is one candidate offered to the cross-encoder.
type RerankDocument struct {
	ID       string
	Text     string
	Score    float32
	Metadata map[string]string
}

// RerankRequest asks the ML service to jointly score (query, document)
// pairs and return the top_k most relevant.
type RerankRequest struct {
	Query     string
	Documents []RerankDocument
	TopK      int32
	Model     string
}

// RerankResponse carries the top_k documents ordered by relevance.
type RerankResponse struct {
	Documents []RerankDocument
}

// GenerateRequest asks the ML service to stream an LLM completion.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	Provider     string
	Model        string
	Temperature  float32
	MaxTokens    int32
}

// GenerateChunk is one frame of a streaming generation response.
type GenerateChunk struct {
	Text    string
	IsFinal bool
}

// Reset/String/ProtoMessage give each message the legacy proto.Message
// surface the default gRPC codec dispatches on; without them every
// Invoke/NewStream fails to marshal before the request leaves the process.

func (x *EmbedRequest) Reset()         { *x = EmbedRequest{} }
func (x *EmbedRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*EmbedRequest) ProtoMessage()    {}

func (x *EmbedResponse) Reset()         { *x = EmbedResponse{} }
func (x *EmbedResponse) String() string { return fmt.Sprintf("%+v", *x) }
func (*EmbedResponse) ProtoMessage()    {}

func (x *RerankDocument) Reset()         { *x = RerankDocument{} }
func (x *RerankDocument) String() string { return fmt.Sprintf("%+v", *x) }
func (*RerankDocument) ProtoMessage()    {}

func (x *RerankRequest) Reset()         { *x = RerankRequest{} }
func (x *RerankRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*RerankRequest) ProtoMessage()    {}

func (x *RerankResponse) Reset()         { *x = RerankResponse{} }
func (x *RerankResponse) String() string { return fmt.Sprintf("%+v", *x) }
func (*RerankResponse) ProtoMessage()    {}

func (x *GenerateRequest) Reset()         { *x = GenerateRequest{} }
func (x *GenerateRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*GenerateRequest) ProtoMessage()    {}

func (x *GenerateChunk) Reset()         { *x = GenerateChunk{} }
func (x *GenerateChunk) String() string { return fmt.Sprintf("%+v", *x) }
func (*GenerateChunk) ProtoMessage()    {}

// MlServiceClient is the client-side gRPC API the stub exposes.
type MlServiceClient interface {
	EmbedBatch(ctx context.Context, in *EmbedRequest, opts ...grpc.CallOption) (*EmbedResponse, error)
	Rerank(ctx context.Context, in *RerankRequest, opts ...grpc.CallOption) (*RerankResponse, error)
	Generate(ctx context.Context, in *GenerateRequest, opts ...grpc.CallOption) (MlService_GenerateClient, error)
}

// MlService_GenerateClient is the receive side of the Generate server
// stream.
type MlService_GenerateClient interface {
	Recv() (*GenerateChunk, error)
	grpc.ClientStream
}

type mlServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMlServiceClient constructs a new gRPC client over cc.
func NewMlServiceClient(cc grpc.ClientConnInterface) MlServiceClient {
	return &mlServiceClient{cc: cc}
}

func (c *mlServiceClient) EmbedBatch(ctx context.Context, in *EmbedRequest, opts ...grpc.CallOption) (*EmbedResponse, error) {
	out := new(EmbedResponse)
	if err := c.cc.Invoke(ctx, "/cortex.ml.MlService/EmbedBatch", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mlServiceClient) Rerank(ctx context.Context, in *RerankRequest, opts ...grpc.CallOption) (*RerankResponse, error) {
	out := new(RerankResponse)
	if err := c.cc.Invoke(ctx, "/cortex.ml.MlService/Rerank", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mlServiceClient) Generate(ctx context.Context, in *GenerateRequest, opts ...grpc.CallOption) (MlService_GenerateClient, error) {
	stream, err := c.cc.NewStream(ctx, &MlService_ServiceDesc.Streams[0], "/cortex.ml.MlService/Generate", opts...)
	if err != nil {
		return nil, err
	}
	x := &mlServiceGenerateClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type mlServiceGenerateClient struct {
	grpc.ClientStream
}

func (x *mlServiceGenerateClient) Recv() (*GenerateChunk, error) {
	m := new(GenerateChunk)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MlServiceServer is the server-side gRPC API.
type MlServiceServer interface {
	EmbedBatch(context.Context, *EmbedRequest) (*EmbedResponse, error)
	Rerank(context.Context, *RerankRequest) (*RerankResponse, error)
	Generate(*GenerateRequest, MlService_GenerateServer) error
	mustEmbedUnimplementedMlServiceServer()
}

// MlService_GenerateServer is the send side of the Generate server stream.
type MlService_GenerateServer interface {
	Send(*GenerateChunk) error
	grpc.ServerStream
}

// UnimplementedMlServiceServer can be embedded for forward compatibility.
type UnimplementedMlServiceServer struct{}

func (UnimplementedMlServiceServer) EmbedBatch(context.Context, *EmbedRequest) (*EmbedResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method EmbedBatch not implemented")
}

func (UnimplementedMlServiceServer) Rerank(context.Context, *RerankRequest) (*RerankResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Rerank not implemented")
}

func (UnimplementedMlServiceServer) Generate(*GenerateRequest, MlService_GenerateServer) error {
	return status.Errorf(codes.Unimplemented, "method Generate not implemented")
}

func (UnimplementedMlServiceServer) mustEmbedUnimplementedMlServiceServer() {}

// RegisterMlServiceServer registers the MlService with a gRPC registrar.
func RegisterMlServiceServer(s grpc.ServiceRegistrar, srv MlServiceServer) {
	s.RegisterService(&MlService_ServiceDesc, srv)
}

func _MlService_EmbedBatch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(EmbedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MlServiceServer).EmbedBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/cortex.ml.MlService/EmbedBatch"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MlServiceServer).EmbedBatch(ctx, req.(*EmbedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MlService_Rerank_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RerankRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MlServiceServer).Rerank(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/cortex.ml.MlService/Rerank"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MlServiceServer).Rerank(ctx, req.(*RerankRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MlService_Generate_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(GenerateRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(MlServiceServer).Generate(m, &mlServiceGenerateServer{stream})
}

type mlServiceGenerateServer struct {
	grpc.ServerStream
}

func (x *mlServiceGenerateServer) Send(m *GenerateChunk) error {
	return x.ServerStream.SendMsg(m)
}

// MlService_ServiceDesc describes the MlService to gRPC.
var MlService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "cortex.ml.MlService",
	HandlerType: (*MlServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "EmbedBatch", Handler: _MlService_EmbedBatch_Handler},
		{MethodName: "Rerank", Handler: _MlService_Rerank_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Generate",
			Handler:       _MlService_Generate_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "internal/mlclient/ml.proto",
}
