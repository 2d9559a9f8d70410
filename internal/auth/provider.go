package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const (
	DefaultClientSecretFile = "client_secret.json"
	DefaultTokenPath        = ".credentials/sheets.googleapis.com-go-quickstart.json"
)

// ErrAuthorization is returned when the interactive grant could not be completed
var ErrAuthorization = errors.New("authorization failed")

// OAuthConfig is the part of *oauth2.Config the provider needs
type OAuthConfig interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	TokenSource(ctx context.Context, t *oauth2.Token) oauth2.TokenSource
}

// Credential is an authorization handle for the spreadsheet backend
type Credential struct {
	Token       *oauth2.Token
	TokenSource oauth2.TokenSource
}

type Provider struct {
	config    OAuthConfig
	tokenPath string
	in        *bufio.Reader
	out       io.Writer

	mu         sync.Mutex
	credential *Credential
}

// LoadOAuthConfig reads an installed-app client secret and returns a config
// scoped to spreadsheet read/write.
func LoadOAuthConfig(clientSecretFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}
	return config, nil
}

func NewProvider(config OAuthConfig, tokenPath string, in io.Reader, out io.Writer) *Provider {
	return &Provider{
		config:    config,
		tokenPath: tokenPath,
		in:        bufio.NewReader(in),
		out:       out,
	}
}

// Acquire returns the cached credential, loading it from the token file or
// running the interactive grant on first use.
func (p *Provider) Acquire(ctx context.Context) (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.credential != nil {
		return p.credential, nil
	}

	token, err := p.loadToken()
	if err != nil {
		log.Debug().Err(err).Str("path", p.tokenPath).Msg("No usable cached token, starting authorization")

		token, err = p.authorize(ctx)
		if err != nil {
			return nil, err
		}
		p.storeToken(token)
	} else {
		log.Debug().Str("path", p.tokenPath).Msg("Loaded cached token")
	}

	p.credential = &Credential{
		Token:       token,
		TokenSource: p.config.TokenSource(ctx, token),
	}
	return p.credential, nil
}

func (p *Provider) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no token", p.tokenPath)
	}
	return token, nil
}

// authorize runs the out-of-band grant: show the consent URL, read back the
// code, exchange it.
func (p *Provider) authorize(ctx context.Context) (*oauth2.Token, error) {
	authURL := p.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(p.out, "Authorize this app by visiting this url: %s\n", authURL)
	fmt.Fprint(p.out, "Enter the code from that page here: ")

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, fmt.Errorf("%w: failed to read authorization code: %w", ErrAuthorization, err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", ErrAuthorization)
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange authorization code: %w", ErrAuthorization, err)
	}
	return token, nil
}

// storeToken persists the token for later runs. A failed write only costs a
// new prompt next time, so it is logged rather than returned.
func (p *Provider) storeToken(token *oauth2.Token) {
	if err := os.MkdirAll(filepath.Dir(p.tokenPath), 0o700); err != nil {
		log.Error().Err(err).Str("path", p.tokenPath).Msg("Failed to create token directory")
		return
	}
	data, err := json.Marshal(token)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode token")
		return
	}
	if err := os.WriteFile(p.tokenPath, data, 0o600); err != nil {
		log.Error().Err(err).Str("path", p.tokenPath).Msg("Failed to store token")
		return
	}
	log.Info().Str("path", p.tokenPath).Msg("Token stored")
}
