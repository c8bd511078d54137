// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package ids defines one opaque identifier type per entity kind so the
// compiler rejects passing a ChunkId where a DocumentId is expected.
package ids

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DocumentId identifies a catalog document row.
type DocumentId uuid.UUID

// ChunkId identifies a vector-store chunk object.
type ChunkId uuid.UUID

// ConnectorId identifies a connector configuration row.
type ConnectorId uuid.UUID

// UserId identifies the owning tenant.
type UserId uuid.UUID

// JobId identifies a worker-pool job.
type JobId uuid.UUID

func NewDocumentId() DocumentId   { return DocumentId(uuid.New()) }
func NewChunkId() ChunkId         { return ChunkId(uuid.New()) }
func NewConnectorId() ConnectorId { return ConnectorId(uuid.New()) }
func NewUserId() UserId           { return UserId(uuid.New()) }
func NewJobId() JobId             { return JobId(uuid.New()) }

func (id DocumentId) String() string  { return uuid.UUID(id).String() }
func (id ChunkId) String() string     { return uuid.UUID(id).String() }
func (id ConnectorId) String() string { return uuid.UUID(id).String() }
func (id UserId) String() string      { return uuid.UUID(id).String() }
func (id JobId) String() string       { return uuid.UUID(id).String() }

func ParseDocumentId(s string) (DocumentId, error) {
	u, err := uuid.Parse(s)
	return DocumentId(u), err
}

func ParseChunkId(s string) (ChunkId, error) {
	u, err := uuid.Parse(s)
	return ChunkId(u), err
}

func ParseConnectorId(s string) (ConnectorId, error) {
	u, err := uuid.Parse(s)
	return ConnectorId(u), err
}

func ParseUserId(s string) (UserId, error) {
	u, err := uuid.Parse(s)
	return UserId(u), err
}

func ParseJobId(s string) (JobId, error) {
	u, err := uuid.Parse(s)
	return JobId(u), err
}

// MarshalJSON/UnmarshalJSON implementations make each ID serialize as a bare
// UUID string rather than as a wrapped object, matching the Rust types'
// #[serde(transparent)] behavior.

func (id DocumentId) MarshalJSON() ([]byte, error)  { return json.Marshal(id.String()) }
func (id ChunkId) MarshalJSON() ([]byte, error)     { return json.Marshal(id.String()) }
func (id ConnectorId) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }
func (id UserId) MarshalJSON() ([]byte, error)      { return json.Marshal(id.String()) }
func (id JobId) MarshalJSON() ([]byte, error)       { return json.Marshal(id.String()) }

func (id *DocumentId) UnmarshalJSON(b []byte) error  { return unmarshalID(b, (*uuid.UUID)(id)) }
func (id *ChunkId) UnmarshalJSON(b []byte) error     { return unmarshalID(b, (*uuid.UUID)(id)) }
func (id *ConnectorId) UnmarshalJSON(b []byte) error { return unmarshalID(b, (*uuid.UUID)(id)) }
func (id *UserId) UnmarshalJSON(b []byte) error      { return unmarshalID(b, (*uuid.UUID)(id)) }
func (id *JobId) UnmarshalJSON(b []byte) error       { return unmarshalID(b, (*uuid.UUID)(id)) }

func unmarshalID(b []byte, dst *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

// Value/Scan let the ID types round-trip through database/sql as TEXT columns.

func (id DocumentId) Value() (driver.Value, error)  { return id.String(), nil }
func (id ChunkId) Value() (driver.Value, error)     { return id.String(), nil }
func (id ConnectorId) Value() (driver.Value, error) { return id.String(), nil }
func (id UserId) Value() (driver.Value, error)      { return id.String(), nil }
func (id JobId) Value() (driver.Value, error)       { return id.String(), nil }

func (id *DocumentId) Scan(src any) error  { return scanID(src, (*uuid.UUID)(id)) }
func (id *ChunkId) Scan(src any) error     { return scanID(src, (*uuid.UUID)(id)) }
func (id *ConnectorId) Scan(src any) error { return scanID(src, (*uuid.UUID)(id)) }
func (id *UserId) Scan(src any) error      { return scanID(src, (*uuid.UUID)(id)) }
func (id *JobId) Scan(src any) error       { return scanID(src, (*uuid.UUID)(id)) }

func scanID(src any, dst *uuid.UUID) error {
	switch v := src.(type) {
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*dst = u
		return nil
	case []byte:
		u, err := uuid.Parse(string(v))
		if err != nil {
			return err
		}
		*dst = u
		return nil
	default:
		return fmt.Errorf("ids: cannot scan %T into uuid", src)
	}
}
