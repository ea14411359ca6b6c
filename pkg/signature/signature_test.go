package signature

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSign_KnownDigest(t *testing.T) {
	payload := []byte(`{"status":"paid","description":"order-1"}`)
	sig := Sign(payload, "s3cret")

	require.Len(t, sig, 64)
	require.Equal(t, sig, Sign(payload, "s3cret"))
	require.True(t, Verify(payload, sig, "s3cret"))
}

func TestVerify_RejectsAlteredPayload(t *testing.T) {
	payload := []byte(`{"status":"paid","description":"order-1"}`)
	sig := Sign(payload, "s3cret")

	altered := []byte(`{"status":"paid","description":"order-2"}`)
	require.False(t, Verify(altered, sig, "s3cret"))
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"status":"paid"}`)
	sig := Sign(payload, "s3cret")

	require.False(t, Verify(payload, sig, "other"))
	require.False(t, Verify(payload, "", "s3cret"))
	require.False(t, Verify(payload, "deadbeef", "s3cret"))
}
