package audit

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Event is emitted from services after a successful mutation. It stays
// transport-agnostic so the memory store and the Kafka sink share it.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	RequestID string    `json:"request_id,omitempty"`
	// Actor is the staff member on the request, when authenticated.
	Actor string `json:"actor,omitempty"`
	// CPFHash is a keyed digest of the patient's CPF digits (see Hasher) so
	// the trail can be correlated without carrying the identifier itself.
	CPFHash string `json:"cpf_hash,omitempty"`
}

type AuditEvent string

const (
	EventPatientCreated AuditEvent = "patient_created"
	EventPatientUpdated AuditEvent = "patient_updated"
	EventPatientDeleted AuditEvent = "patient_deleted"

	EventAppointmentCreated AuditEvent = "appointment_created"
	EventAppointmentUpdated AuditEvent = "appointment_updated"
	EventAppointmentDeleted AuditEvent = "appointment_deleted"
)

const (
	EntityPatient     = "patient"
	EntityAppointment = "appointment"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists persisted events. Only queryable stores implement it.
type Reader interface {
	ListByEntity(ctx context.Context, entityID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Hasher produces keyed BLAKE2b-256 digests of identifiers. The CPF space
// is small enough to enumerate, so an unkeyed digest would not hide it.
// The zero value hashes without a key.
type Hasher struct {
	key []byte
}

// NewHasher keys digests with secret. Secrets longer than the 64 bytes
// BLAKE2b accepts are first compressed with BLAKE2b-512.
func NewHasher(secret []byte) Hasher {
	if len(secret) > blake2b.Size {
		sum := blake2b.Sum512(secret)
		secret = sum[:]
	}
	return Hasher{key: append([]byte(nil), secret...)}
}

// Hash returns the hex digest of value, or "" for an empty value.
func (h Hasher) Hash(value string) string {
	if value == "" {
		return ""
	}
	// key length is bounded by NewHasher, so New256 cannot fail.
	d, _ := blake2b.New256(h.key)
	d.Write([]byte(value))
	return hex.EncodeToString(d.Sum(nil))
}
