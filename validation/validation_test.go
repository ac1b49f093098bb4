package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("410-111-1111"))
	assert.True(t, IsPhone("(410) 111 1111"))
	assert.False(t, IsPhone("abc-def"))
	assert.False(t, IsPhone("12"))
}

func TestExact10Or11Digits(t *testing.T) {
	assert.True(t, Exact10Or11Digits("1234567890"))
	assert.True(t, Exact10Or11Digits("410-111-11112"))
	assert.False(t, Exact10Or11Digits("123456789"))
	assert.False(t, Exact10Or11Digits("123456789012"))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("alice@example.com"))
	assert.False(t, IsEmail("alice@@example.com"))
	assert.False(t, IsEmail("not an email"))
}

func TestIsExtID(t *testing.T) {
	assert.True(t, IsExtID("EXT-4921#A"))
	assert.False(t, IsExtID("1234567890"))
	assert.False(t, IsExtID("has space"))
}

func TestIsBirthdate(t *testing.T) {
	assert.True(t, IsBirthdate("1990/04/21"))
	assert.True(t, IsBirthdate("April 3rd"))
	assert.False(t, IsBirthdate("Alice Smith"))
}

func TestIsNameShape(t *testing.T) {
	assert.True(t, IsNameShape("Alice Smith"))
	assert.True(t, IsNameShape("Mary-Jane O'Brien"))
	assert.False(t, IsNameShape("alice smith"))
	assert.False(t, IsNameShape(""))
}

func TestIsPreferredNameShape(t *testing.T) {
	assert.True(t, IsPreferredNameShape("(Bob)"))
	assert.True(t, IsPreferredNameShape(`"Bobby"`))
	assert.False(t, IsPreferredNameShape("Bob"))
}

func TestIsCommonFirstName(t *testing.T) {
	assert.True(t, IsCommonFirstName("Alice"))
	assert.False(t, IsCommonFirstName("Zglorp"))
}
