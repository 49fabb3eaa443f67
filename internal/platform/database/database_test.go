package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("other")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
}

func TestSchema_IsIdempotent(t *testing.T) {
	s := Schema()
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS patients")
	assert.Contains(t, s, "ON DELETE CASCADE")
	assert.NotContains(t, s, "CREATE TABLE patients")
}
