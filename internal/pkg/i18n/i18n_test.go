package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalize(t *testing.T) {
	Init()

	assert.Equal(t, "Requisition not found", Localize("en-US", "REQUISITION_NOT_FOUND", "fallback", nil))
	assert.Equal(t, "Permintaan suku cadang tidak ditemukan", Localize("id-ID,id;q=0.9", "REQUISITION_NOT_FOUND", "fallback", nil))
	assert.Equal(t, "Requisition not found", Localize("fr", "REQUISITION_NOT_FOUND", "fallback", nil))

	msg := Localize("en", "INSUFFICIENT_STOCK", "fallback", map[string]interface{}{"requested": 8, "available": 5})
	assert.Equal(t, "Insufficient stock: 8 requested, 5 available", msg)
}

func TestLocalizeUnknownID(t *testing.T) {
	Init()
	assert.Equal(t, "raw message", Localize("en", "NO_SUCH_ID", "raw message", nil))
}
