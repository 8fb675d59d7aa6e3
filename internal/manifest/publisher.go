package manifest

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/gymcore/license-server/pkg/errors"
	"github.com/gymcore/license-server/pkg/logger"
)

// identRe gates version and build identifiers before they touch the
// filesystem.
var identRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Artifact is one expected build file and its digest.
type Artifact struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// Manifest is the parsed form of one published manifest file.
type Manifest struct {
	Version     string     `json:"version"`
	BuildID     string     `json:"build_id,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	Artifacts   []Artifact `json:"artifacts"`
}

// Result pairs the parsed manifest with its detached signature and the exact
// bytes that were signed. Verification must run against Raw, never against a
// re-serialization of Manifest.
type Result struct {
	Manifest  Manifest `json:"manifest"`
	Signature string   `json:"signature"`
	Raw       []byte   `json:"-"`
}

// Publisher reads immutable, pre-signed manifests from a directory.
// Publishing happens out-of-band at release time.
type Publisher struct {
	dir  string
	logg *logger.Logger
}

// NewPublisher builds a manifest publisher over the given directory.
func NewPublisher(dir string, logg *logger.Logger) (*Publisher, error) {
	if dir == "" {
		return nil, fmt.Errorf("manifest dir required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Publisher{dir: dir, logg: logg}, nil
}

// Get returns the manifest published for version (and optional buildID).
func (p *Publisher) Get(ctx context.Context, version, buildID string) (*Result, error) {
	version = strings.TrimSpace(version)
	buildID = strings.TrimSpace(buildID)
	if version == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "version is required")
	}
	for _, ident := range []string{version, buildID} {
		if ident == "" {
			continue
		}
		if ident == "." || ident == ".." || !identRe.MatchString(ident) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid version or build id")
		}
	}

	name := version
	if buildID != "" {
		name = version + "_" + buildID
	}

	raw, err := os.ReadFile(filepath.Join(p.dir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read manifest")
	}

	sigRaw, err := os.ReadFile(filepath.Join(p.dir, name+".json.sig"))
	if err != nil {
		if os.IsNotExist(err) {
			p.logg.Warn(ctx, "manifest present without signature: "+name)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read manifest signature")
	}

	var parsed Manifest
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse manifest")
	}

	return &Result{
		Manifest:  parsed,
		Signature: strings.TrimSpace(string(sigRaw)),
		Raw:       raw,
	}, nil
}

// Sign produces the detached base64 signature for manifest bytes. Used by
// the release-time signing tool; the server itself only reads.
func Sign(priv ed25519.PrivateKey, raw []byte) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(priv, raw))
}

// Verify checks a detached base64 signature over the exact raw bytes.
func Verify(pub ed25519.PublicKey, raw []byte, signature string) bool {
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, raw, sig)
}
