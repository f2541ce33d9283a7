// Package artifact tracks remote-backed local files and verifies them.
//
// # Trust modes
//
// An artifact is either Hashed, a third-party file whose hash is published
// out of band, or Signed, a first-party file served from the distribution
// point that must carry a detached signature accepted by the trust store.
// The mode is fixed when the descriptor is built.
//
// # Checks
//
// Entries move through a small state machine:
//
//	Unknown -> LightCheck -> PresentUnverified | Missing
//	        -> DeepCheck  -> Valid | Corrupt
//	        -> Download   -> PresentUnverified
//
// LightCheck only tests existence and declared size, so a corrupt file of
// the right length passes it. DeepCheck recomputes the digest or verifies
// the signature, always after the size test. Download never verifies.
//
// Manager.Ensure (light check, download what fails) is the routine path.
// Manager.Repair (deep check, delete and download what fails, check again)
// is the audit path.
//
// # Bundles
//
// An entry owns an ordered list of child entries. Every operation walks
// the tree parent first, and a bundle is valid only when every descendant
// is valid. The *All methods process top-level entries in parallel while a
// single goroutine handles each subtree.
//
// # Signatures
//
// Signatures of signed artifacts are mirrored under
// <root>/.signatures/<path>.sig and fetched from <base>/<path>.sig when
// missing.
package artifact
