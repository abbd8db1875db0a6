package scram

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDeriveKeys_KnownVector(t *testing.T) {
	t.Parallel()

	k := deriveKeys([]byte("correcthorsebatterystaple"), make([]byte, 16), 4096)

	require.Equal(t, mustHex(t, "2f74211dc848a5028ca2625bd3f94e429ffab72468f169ad4ffbbde69e6811eb"), k.digest)
	require.Equal(t, mustHex(t, "d83ffca96913bcbda6d94921f5acf2ebbb772b142a82402385f6f2d796854629"), k.client)
	require.Equal(t, mustHex(t, "79417593827e93abe7fe08cb7611823aa8fca2be4ffee815f7fd91b2a24072bd"), k.stored)
	require.Equal(t, mustHex(t, "bf333b91b0e59077e8cbbd3ac106916ed6dfe0f8b9569d691c8ecbae99ea0d83"), k.server)
}

func TestDeriveWithSalt_KnownVectors(t *testing.T) {
	t.Parallel()

	seq := make([]byte, 16)
	for i := range seq {
		seq[i] = byte(i)
	}

	cases := []struct {
		name       string
		password   string
		salt       []byte
		iterations int
		want       string
	}{
		{
			name:       "zero salt",
			password:   "correcthorsebatterystaple",
			salt:       make([]byte, 16),
			iterations: 4096,
			want:       "SCRAM-SHA-256$4096:AAAAAAAAAAAAAAAAAAAAAA==$eUF1k4J+k6vn/gjLdhGCOqj8or5P/ugV9/2RsqJAcr0=:vzM7kbDlkHfoy706wQaRbtbf4Pi5Vp1pHI7LrpnqDYM=",
		},
		{
			name:       "sequential salt",
			password:   "my-secret",
			salt:       seq,
			iterations: 4096,
			want:       "SCRAM-SHA-256$4096:AAECAwQFBgcICQoLDA0ODw==$oIeWFGFQgT6kkZHuRPXz8kjogz07Ksitj7dIgV87i08=:546ACh6QFt7IYIZ06NP2wGqY7kbl5b/cICNIBuhbWYE=",
		},
		{
			name:       "single iteration",
			password:   "correcthorsebatterystaple",
			salt:       make([]byte, 16),
			iterations: 1,
			want:       "SCRAM-SHA-256$1:AAAAAAAAAAAAAAAAAAAAAA==$+d67lFve9I0uK+Mxv5MuwnT5ZRUbdN1byp5oP73tq5Y=:dmqEr2TtR6WL8OCqwSbnmnlTL3fgRZ1uZohgWQJYwaU=",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v, err := DeriveWithSalt(tc.password, tc.salt, tc.iterations)
			require.NoError(t, err)
			require.Equal(t, tc.want, v.String())
		})
	}
}

// RFC 7677 section 3 example: user "user", password "pencil".
func TestDeriveWithSalt_RFC7677(t *testing.T) {
	t.Parallel()

	salt, err := base64.StdEncoding.DecodeString("W22ZaJ0SNY7soEsUEjb6gQ==")
	require.NoError(t, err)

	v, err := DeriveWithSalt("pencil", salt, 4096)
	require.NoError(t, err)
	require.Equal(t,
		"SCRAM-SHA-256$4096:W22ZaJ0SNY7soEsUEjb6gQ==$WG5d8oPm3OtcPnkdi4Uo7BkeZkBFzpcXkuLmtbsT4qY=:wfPLwcE6nTWhTAmQ7tl2KeoiWGPlZqQxSrmfPwDl2dU=",
		v.String(),
	)
}

func TestDeriveWithSalt_Deterministic(t *testing.T) {
	t.Parallel()

	salt := []byte("0123456789abcdef")

	a := deriveKeys([]byte("hunter2hunter2"), salt, 4096)
	b := deriveKeys([]byte("hunter2hunter2"), salt, 4096)
	require.Equal(t, a, b)

	va, err := DeriveWithSalt("hunter2hunter2", salt, 4096)
	require.NoError(t, err)
	vb, err := DeriveWithSalt("hunter2hunter2", salt, 4096)
	require.NoError(t, err)
	require.Equal(t, va.String(), vb.String())
}

func TestDeriveKeys_DistinctKeys(t *testing.T) {
	t.Parallel()

	k := deriveKeys([]byte("correcthorsebatterystaple"), make([]byte, 16), 4096)

	for _, b := range [][]byte{k.digest, k.client, k.stored, k.server} {
		require.Len(t, b, KeyLength)
	}
	require.NotEqual(t, k.client, k.stored)
	require.NotEqual(t, k.server, k.stored)
	require.NotEqual(t, k.server, k.client)
	require.NotEqual(t, k.digest, k.client)
}

func TestDeriveWithSalt_DoesNotAliasSalt(t *testing.T) {
	t.Parallel()

	salt := make([]byte, 16)
	v, err := DeriveWithSalt("correcthorsebatterystaple", salt, 4096)
	require.NoError(t, err)

	salt[0] = 0xff
	require.Equal(t, byte(0), v.Salt[0])
}

func TestDeriveWithSalt_InvalidInput(t *testing.T) {
	t.Parallel()

	salt := make([]byte, 16)

	_, err := DeriveWithSalt("", salt, 4096)
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, err = DeriveWithSalt("pw", salt, 0)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = DeriveWithSalt("pw", salt, -1)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = DeriveWithSalt("pw", nil, 4096)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = DeriveWithSalt("pw", make([]byte, MaxSaltLength+1), 4096)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestKeysWipe(t *testing.T) {
	t.Parallel()

	k := deriveKeys([]byte("correcthorsebatterystaple"), make([]byte, 16), 4096)
	stored := append([]byte(nil), k.stored...)

	k.wipe()

	require.Equal(t, make([]byte, KeyLength), k.digest)
	require.Equal(t, make([]byte, KeyLength), k.client)
	require.Equal(t, stored, k.stored)
}
