// Package secure keeps sensitive bytes, such as certificate files read from
// the user store, inside memguard enclaves.
//
// Data handed to NewSecureBuffer is copied into an encrypted enclave and the
// source slice is wiped. Plaintext is only available inside WithBytes, or
// through Open for callers that manage the locked buffer themselves:
//
//	buf, err := secure.NewSecureBuffer(raw)
//	if err != nil {
//	    return err
//	}
//	defer buf.Destroy()
//
//	err = buf.WithBytes(func(plain []byte) error {
//	    return parse(plain)
//	})
//
// Call memguard.Purge (via Purge) before process exit to wipe anything left.
package secure
