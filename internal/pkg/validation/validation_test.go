package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("Secret#123"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("NoDigits!!"))
	assert.False(t, IsValidPassword("NoSpecial123"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("ada@stablebricks.com"))
	assert.False(t, IsValidEmail("ada@stablebricks"))
	assert.False(t, IsValidEmail("ada stablebricks.com"))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("Adaeze O'Neil-Okafor"))
	assert.True(t, IsValidName("Chidi J. Okeke"))
	assert.False(t, IsValidName("   "))
	assert.False(t, IsValidName("Robert'); DROP TABLE"))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+234 803-123-4567"))
	assert.False(t, IsValidPhone("call me"))
}

func TestPagination(t *testing.T) {
	l, o := Pagination("", "", 20, 100)
	assert.Equal(t, 20, l)
	assert.Equal(t, 0, o)

	l, o = Pagination("500", "-3", 20, 100)
	assert.Equal(t, 100, l)
	assert.Equal(t, 0, o)

	l, o = Pagination("5", "10", 20, 100)
	assert.Equal(t, 5, l)
	assert.Equal(t, 10, o)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}
