package manifest

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
)

func newPublisher(t *testing.T) (*Publisher, string, ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()

	dir := t.TempDir()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	p, err := NewPublisher(dir, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return p, dir, pub, priv
}

func publish(t *testing.T, dir, name string, body []byte, priv ed25519.PrivateKey) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json.sig"), []byte(Sign(priv, body)), 0o644))
}

func TestGet_PublishedManifest(t *testing.T) {
	p, dir, pub, priv := newPublisher(t)

	body := []byte(`{"version":"2.4.0","artifacts":[{"path":"bin/gymclient.exe","sha256":"abc123"}]}`)
	publish(t, dir, "2.4.0", body, priv)

	res, err := p.Get(context.Background(), "2.4.0", "")
	require.NoError(t, err)

	assert.Equal(t, "2.4.0", res.Manifest.Version)
	require.Len(t, res.Manifest.Artifacts, 1)
	assert.Equal(t, "bin/gymclient.exe", res.Manifest.Artifacts[0].Path)
	assert.Equal(t, body, res.Raw, "raw signed bytes returned verbatim")
	assert.True(t, Verify(pub, res.Raw, res.Signature))
}

func TestGet_BuildIDVariant(t *testing.T) {
	p, dir, _, priv := newPublisher(t)

	body := []byte(`{"version":"2.4.0","build_id":"nightly-77","artifacts":[]}`)
	publish(t, dir, "2.4.0_nightly-77", body, priv)

	res, err := p.Get(context.Background(), "2.4.0", "nightly-77")
	require.NoError(t, err)
	assert.Equal(t, "nightly-77", res.Manifest.BuildID)
}

func TestGet_UnpublishedVersion(t *testing.T) {
	p, _, _, _ := newPublisher(t)

	_, err := p.Get(context.Background(), "9.9.9", "")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestGet_ManifestWithoutSignatureIsHidden(t *testing.T) {
	p, dir, _, _ := newPublisher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.5.0.json"), []byte(`{"version":"2.5.0"}`), 0o644))

	_, err := p.Get(context.Background(), "2.5.0", "")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestGet_RepeatedFetchesAreByteIdentical(t *testing.T) {
	p, dir, _, priv := newPublisher(t)

	body := []byte(`{"version":"3.0.0","artifacts":[{"path":"a","sha256":"x"},{"path":"b","sha256":"y"}]}`)
	publish(t, dir, "3.0.0", body, priv)

	first, err := p.Get(context.Background(), "3.0.0", "")
	require.NoError(t, err)
	second, err := p.Get(context.Background(), "3.0.0", "")
	require.NoError(t, err)

	assert.Equal(t, first.Raw, second.Raw)
	assert.Equal(t, first.Signature, second.Signature)
}

func TestGet_RejectsTraversal(t *testing.T) {
	p, _, _, _ := newPublisher(t)

	for _, version := range []string{"../etc/passwd", "a/b", `a\b`, "..", "", "v1;rm"} {
		_, err := p.Get(context.Background(), version, "")
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr, "version %q", version)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code(), "version %q", version)
	}

	_, err := p.Get(context.Background(), "2.4.0", "../../key")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestSignVerify_TamperDetection(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := []byte(`{"version":"1.0.0"}`)
	sig := Sign(priv, body)

	assert.True(t, Verify(pub, body, sig))
	assert.False(t, Verify(pub, []byte(`{"version":"1.0.1"}`), sig))
	assert.False(t, Verify(pub, body, "not-base64!"))
}
