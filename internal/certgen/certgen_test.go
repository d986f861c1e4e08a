package certgen

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeCA generates a CA and writes it into a temp dir, returning the file paths.
func writeCA(t *testing.T) (certPath, keyPath string) {
	t.Helper()
	certPEM, keyPEM, err := GenerateCA("Test CA")
	if err != nil {
		t.Fatalf("GenerateCA: %v", err)
	}
	dir := t.TempDir()
	certPath = filepath.Join(dir, "ca.crt")
	keyPath = filepath.Join(dir, "ca.key")
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	return certPath, keyPath
}

func TestGenerateCA(t *testing.T) {
	certPEM, keyPEM, err := GenerateCA("Rollcall Dev CA")
	if err != nil {
		t.Fatalf("GenerateCA: %v", err)
	}
	caCert, caKey, err := ParseCA(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("ParseCA: %v", err)
	}
	if !caCert.IsCA || !caCert.BasicConstraintsValid {
		t.Error("CA certificate should have IsCA and BasicConstraintsValid")
	}
	if caCert.KeyUsage&x509.KeyUsageCertSign == 0 {
		t.Errorf("CA KeyUsage = %v; want CertSign", caCert.KeyUsage)
	}
	if dur := caCert.NotAfter.Sub(caCert.NotBefore); dur < 9*365*24*time.Hour {
		t.Errorf("CA validity too short: %v", dur)
	}
	if caCert.Subject.CommonName != "Rollcall Dev CA" {
		t.Errorf("CommonName = %q", caCert.Subject.CommonName)
	}
	if _, ok := caKey.(*ecdsa.PrivateKey); !ok {
		t.Errorf("key type = %T; want *ecdsa.PrivateKey", caKey)
	}
}

func TestLoadCACredentials_Success(t *testing.T) {
	certPath, keyPath := writeCA(t)

	caCert, caKey, err := LoadCACredentials(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadCACredentials error: %v", err)
	}
	if caCert.Subject.CommonName != "Test CA" {
		t.Errorf("CommonName = %q; want %q", caCert.Subject.CommonName, "Test CA")
	}
	priv, ok := caKey.(*ecdsa.PrivateKey)
	if !ok {
		t.Fatalf("key type = %T; want *ecdsa.PrivateKey", caKey)
	}
	if !priv.PublicKey.Equal(caCert.PublicKey) {
		t.Error("private key does not match certificate")
	}
}

func TestLoadCACredentials_Errors(t *testing.T) {
	certPath, keyPath := writeCA(t)
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.pem")
	if err := os.WriteFile(junk, []byte("not pem"), 0o600); err != nil {
		t.Fatal(err)
	}
	unsupported := filepath.Join(dir, "unsupported.pem")
	if err := os.WriteFile(unsupported, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}}), 0o600); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name, cert, key, want string
	}{
		{"missing cert", "/no/such/file.pem", keyPath, "read ca cert"},
		{"missing key", certPath, "/no/such/key.pem", "read ca key"},
		{"bad cert", junk, keyPath, "invalid CA cert PEM"},
		{"bad key", certPath, junk, "invalid CA key PEM"},
		{"unsupported key", certPath, unsupported, "unsupported key type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := LoadCACredentials(tc.cert, tc.key)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v; want error containing %q", err, tc.want)
			}
		})
	}
}

func TestGenerateServerCertificate(t *testing.T) {
	caCert, caKey, err := LoadCACredentials(writeCA(t))
	if err != nil {
		t.Fatal(err)
	}

	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost", "127.0.0.1"}, caCert, caKey)
	if err != nil {
		t.Fatalf("GenerateServerCertificate error: %v", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("cert PEM invalid")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse server cert: %v", err)
	}
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want localhost", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Errorf("DNSNames = %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")) {
		t.Errorf("IPAddresses = %v", cert.IPAddresses)
	}

	pool := x509.NewCertPool()
	pool.AddCert(caCert)
	if _, err := cert.Verify(x509.VerifyOptions{DNSName: "localhost", Roots: pool}); err != nil {
		t.Errorf("server cert does not verify against CA: %v", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil || keyBlock.Type != "EC PRIVATE KEY" {
		t.Fatalf("key PEM invalid")
	}
}

func TestGenerateServerCertificate_NoHosts(t *testing.T) {
	caCert, caKey, err := LoadCACredentials(writeCA(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := GenerateServerCertificate(nil, caCert, caKey); err == nil {
		t.Error("expected error for empty host list")
	}
}
