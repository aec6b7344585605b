package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("ivan_petrov"))
	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("1ivan"))
	assert.Error(t, ValidateUsername("иван"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret123"))
	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("nouppercase1"))
	assert.Error(t, ValidatePassword("NOLOWERCASE1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
}

func TestValidateOptionalContacts(t *testing.T) {
	assert.NoError(t, ValidateEmail(nil))
	assert.NoError(t, ValidateEmail(strPtr("user@example.com")))
	assert.Error(t, ValidateEmail(strPtr("user@localhost")))

	assert.NoError(t, ValidatePhone(strPtr("+79001234567")))
	assert.Error(t, ValidatePhone(strPtr("12-34")))

	assert.NoError(t, ValidatePincode(strPtr("101000")))
	assert.Error(t, ValidatePincode(strPtr("10A")))
}

func TestValidateRequestDescription(t *testing.T) {
	assert.NoError(t, ValidateRequestDescription(nil))
	assert.NoError(t, ValidateRequestDescription(strPtr("течёт кран на кухне")))
	assert.Error(t, ValidateRequestDescription(strPtr(strings.Repeat("я", MaxDescriptionLength+1))))
}

func TestValidateService(t *testing.T) {
	assert.NoError(t, ValidateServiceName("Уборка"))
	assert.Error(t, ValidateServiceName("  "))
	assert.NoError(t, ValidateBasePrice(0))
	assert.Error(t, ValidateBasePrice(-1))
}

func TestValidatePDF(t *testing.T) {
	pdf := []byte("%PDF-1.7\n%âãÏÓ\n")
	assert.NoError(t, ValidatePDF("resume.PDF", pdf))
	assert.Error(t, ValidatePDF("resume.txt", pdf))

	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	assert.Error(t, ValidatePDF("resume.pdf", png))
	assert.Error(t, ValidatePDF("resume.pdf", []byte("plain text")))
}
