package attest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestDeterminism(t *testing.T) {
	c := ContentDescriptor{Platform: "shopfront", Subject: "widget-9", Body: "does what it says"}

	assert.Equal(t, DigestContent(c), DigestContent(c))
}

func TestDigestDistinctContent(t *testing.T) {
	a := DigestContent(ContentDescriptor{Platform: "p", Subject: "s", Body: "good"})
	b := DigestContent(ContentDescriptor{Platform: "p", Subject: "s", Body: "bad"})

	assert.NotEqual(t, a, b)
}

func TestDigestFieldBoundaries(t *testing.T) {
	// shifting bytes between adjacent fields must change the digest
	a := DigestContent(ContentDescriptor{Platform: "ab", Subject: "c", Body: ""})
	b := DigestContent(ContentDescriptor{Platform: "a", Subject: "bc", Body: ""})

	assert.NotEqual(t, a, b)
}

func TestParseDigestRoundTrip(t *testing.T) {
	d := DigestContent(ContentDescriptor{Body: "round trip"})

	parsed, err := ParseDigest(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestParseDigestRejectsBadInput(t *testing.T) {
	_, err := ParseDigest("zz")
	assert.Error(t, err)

	_, err = ParseDigest("abcd")
	assert.Error(t, err)
}

func TestDeriveAssetIDDeterminism(t *testing.T) {
	d := DigestContent(ContentDescriptor{Body: "content"})

	assert.Equal(t, DeriveAssetID("Collection", d), DeriveAssetID("Collection", d))
	assert.NotEqual(t, DeriveAssetID("Collection", d), DeriveAssetID("Other", d))
}
