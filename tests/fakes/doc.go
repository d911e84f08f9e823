// Package fakes provides test doubles for the Azure Key Vault client and
// the certificate store.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior: paging, per-secret errors, disabled and expired
// entries, and open/close accounting for store handles.
//
// Usage:
//
//	vault := fakes.NewFakeAzureKeyVaultClient()
//	vault.AddSecretString("my-secret-01", "secret123")
//	vault.PageSize = 2
//
//	opener := fakes.NewFakeCertificateOpener(cert.StoreCertificate(false))
//	store, report, err := bootstrap.Run(ctx, base, bootstrap.Options{
//	    Opener: opener,
//	    NewClient: func(string, azcore.TokenCredential) (keyvault.Client, error) {
//	        return vault, nil
//	    },
//	})
//	// opener.Outstanding() == 0 on every path
package fakes
