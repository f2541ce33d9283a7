// Package trust holds the set of public keys cairn accepts for artifact
// signatures and verifies detached signatures against them.
//
// # Trust chain
//
// A single root key is embedded in the binary. At startup a Loader fetches
// the operator's trusted-keys document together with its detached signature
// and checks it against the root key only, so the document can never vouch
// for itself. Each {name, key} pair it lists is then added to the Store.
// If the document is missing or invalid the Store keeps the root key alone;
// mirrors going briefly offline are expected and must not stop the client.
//
// The Store is built once and never mutated afterwards. Callers pass it
// explicitly to every verification site.
//
// # Signature format
//
// Signature files hold base64 text of the raw signature bytes. Ed25519
// signatures cover the SHA-512 digest of the content; OpenPGP keys verify
// ordinary detached signatures.
package trust
