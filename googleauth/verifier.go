// Package googleauth validates Google-issued OpenID Connect ID tokens. The
// HTTP surface posts the raw credential from Google Identity Services here;
// verification is local against Google's published signing keys.
package googleauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// GoogleJWKSURL is Google's published JWKS endpoint.
	GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

	defaultLeeway       = 30 * time.Second
	defaultJWKSCacheTTL = 5 * time.Minute
)

var (
	// ErrInvalidCredential marks a credential that failed validation, as
	// opposed to a transport failure while fetching Google's keys.
	ErrInvalidCredential = errors.New("invalid google credential")

	errUnknownKey = errors.New("unknown token key")

	googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}
)

// Identity is the subset of the Google ID-token payload the backend uses.
type Identity struct {
	Email   string
	Subject string
}

// Verifier is the opaque identity collaborator handlers depend on.
type Verifier interface {
	VerifyCredential(ctx context.Context, credential string) (*Identity, error)
}

// Config configures ID-token verification.
type Config struct {
	// ClientID is the expected audience. Empty skips the audience check.
	ClientID string
	// JWKSURL overrides the Google endpoint; used by tests.
	JWKSURL    string
	Leeway     time.Duration
	HTTPClient *http.Client
}

// JWKSVerifier validates RS256 ID tokens against a cached JWKS.
type JWKSVerifier struct {
	clientID   string
	leeway     time.Duration
	jwksURL    string
	httpClient *http.Client

	mu         sync.RWMutex
	rsaKeys    map[string]*rsa.PublicKey
	keysExpire time.Time
}

type idTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewVerifier creates a verifier for Google ID tokens. Keys are fetched
// lazily on first use and refreshed when an unknown kid appears.
func NewVerifier(cfg Config) *JWKSVerifier {
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		jwksURL = GoogleJWKSURL
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &JWKSVerifier{
		clientID:   strings.TrimSpace(cfg.ClientID),
		leeway:     leeway,
		jwksURL:    jwksURL,
		httpClient: httpClient,
	}
}

// VerifyCredential validates the posted credential and extracts the caller's
// Google identity. Returns ErrInvalidCredential (wrapped) for any token that
// does not pass validation.
func (v *JWKSVerifier) VerifyCredential(ctx context.Context, credential string) (*Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrInvalidCredential)
	}

	claims, err := v.parse(ctx, credential)
	if errors.Is(err, errUnknownKey) {
		if refreshErr := v.refreshJWKS(ctx); refreshErr != nil {
			return nil, refreshErr
		}
		claims, err = v.parse(ctx, credential)
	}
	if err != nil {
		return nil, err
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: payload has no email", ErrInvalidCredential)
	}
	return &Identity{Email: claims.Email, Subject: claims.Subject}, nil
}

func (v *JWKSVerifier) parse(ctx context.Context, credential string) (*idTokenClaims, error) {
	keys, err := v.currentKeys(ctx)
	if err != nil {
		return nil, err
	}

	claims := &idTokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.clientID != "" {
		opts = append(opts, jwt.WithAudience(v.clientID))
	}

	parsed, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[strings.TrimSpace(kid)]
		if !ok {
			return nil, errUnknownKey
		}
		return key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, errUnknownKey) {
			return nil, errUnknownKey
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidCredential
	}

	if !validGoogleIssuer(claims.Issuer) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidCredential, claims.Issuer)
	}
	return claims, nil
}

func validGoogleIssuer(issuer string) bool {
	for _, iss := range googleIssuers {
		if issuer == iss {
			return true
		}
	}
	return false
}

func (v *JWKSVerifier) currentKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	v.mu.RLock()
	fresh := v.rsaKeys != nil && time.Now().Before(v.keysExpire)
	keys := v.rsaKeys
	v.mu.RUnlock()

	if fresh {
		return keys, nil
	}
	if err := v.refreshJWKS(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.rsaKeys, nil
}

func (v *JWKSVerifier) refreshJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, k := range payload.Keys {
		if !strings.EqualFold(strings.TrimSpace(k.Kty), "RSA") || strings.TrimSpace(k.Kid) == "" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[strings.TrimSpace(k.Kid)] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks contains no usable rsa keys")
	}

	v.mu.Lock()
	v.rsaKeys = keys
	v.keysExpire = time.Now().Add(defaultJWKSCacheTTL)
	v.mu.Unlock()
	return nil
}

func parseRSAPublicKey(nRaw, eRaw string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(nRaw))
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(eRaw))
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	eBig := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || !eBig.IsInt64() || eBig.Int64() <= 0 {
		return nil, errors.New("invalid rsa key")
	}
	return &rsa.PublicKey{N: n, E: int(eBig.Int64())}, nil
}
