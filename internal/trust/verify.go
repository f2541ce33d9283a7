package trust

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/cairn-launcher/cairn/internal/digest"
)

// SignatureExtension is appended to an artifact path to name its detached
// signature file.
const SignatureExtension = ".sig"

// signedDigest is the digest an ed25519 signature is computed over.
const signedDigest = digest.SHA512

// Verify reports whether sig is a valid signature of content under key.
// Ed25519 signatures cover the SHA-512 digest of the content; OpenPGP
// signatures are detached signatures over the content itself. Read and
// cryptographic errors yield false.
func Verify(content io.Reader, sig []byte, key Key) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	switch key.Algorithm {
	case AlgorithmEd25519:
		if len(key.Raw) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
			return false
		}
		sum, err := digest.Reader(content, signedDigest)
		if err != nil {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(key.Raw), sum, sig)

	case AlgorithmOpenPGP:
		if len(key.entities) == 0 {
			return false
		}
		var err error
		if bytes.HasPrefix(bytes.TrimSpace(sig), []byte("-----BEGIN")) {
			_, err = openpgp.CheckArmoredDetachedSignature(key.entities, content, bytes.NewReader(sig), nil)
		} else {
			_, err = openpgp.CheckDetachedSignature(key.entities, content, bytes.NewReader(sig), nil)
		}
		return err == nil

	default:
		return false
	}
}

// VerifyFile reports whether sig is a valid signature of the file at path.
func VerifyFile(path string, sig []byte, key Key) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	return Verify(file, sig, key)
}

// Sign produces an ed25519 signature over the SHA-512 digest of content.
// It is the counterpart of Verify used by distribution tooling.
func Sign(content io.Reader, priv ed25519.PrivateKey) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key size: expected %d bytes, got %d",
			ed25519.PrivateKeySize, len(priv))
	}

	sum, err := digest.Reader(content, signedDigest)
	if err != nil {
		return nil, fmt.Errorf("digest content: %w", err)
	}

	return ed25519.Sign(priv, sum), nil
}

// DecodeSignature decodes the base64 text of a detached signature file.
func DecodeSignature(data []byte) ([]byte, error) {
	sig, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid signature base64: %w", err)
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("signature is empty")
	}
	return sig, nil
}

// EncodeSignature renders sig as the base64 text stored in signature files.
func EncodeSignature(sig []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(sig) + "\n")
}

// ReadSignatureFile reads and decodes a detached signature file.
func ReadSignatureFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	return DecodeSignature(data)
}
