package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerificationComplete(t *testing.T) {
	full := Verification{Email1: true, Phone1: true, ID1: true, Email2: true, Phone2: true, ID2: true}
	assert.True(t, full.Complete())

	// Any single missing flag blocks completion.
	for _, drop := range []func(*Verification){
		func(v *Verification) { v.Email1 = false },
		func(v *Verification) { v.Phone1 = false },
		func(v *Verification) { v.ID1 = false },
		func(v *Verification) { v.Email2 = false },
		func(v *Verification) { v.Phone2 = false },
		func(v *Verification) { v.ID2 = false },
	} {
		v := full
		drop(&v)
		assert.False(t, v.Complete())
	}

	assert.False(t, Verification{}.Complete())
}

func TestValidFlag(t *testing.T) {
	for _, name := range []string{FlagEmail1, FlagPhone1, FlagID1, FlagEmail2, FlagPhone2, FlagID2} {
		assert.True(t, ValidFlag(name), name)
	}
	assert.False(t, ValidFlag("email3"))
	assert.False(t, ValidFlag(""))
	assert.False(t, ValidFlag("status"))
}

func TestIDFlagForPerson(t *testing.T) {
	assert.Equal(t, FlagID1, IDFlagForPerson(1))
	assert.Equal(t, FlagID2, IDFlagForPerson(2))
}
