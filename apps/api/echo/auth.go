package echoapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/access"
	"github.com/learnova/learnova/core/user"
)

const (
	audience          = "Learnova"
	contextSessionKey = "session"
	contextClaimsKey  = "claims"
	bearerScheme      = "Bearer "
)

var errInvalidToken = errors.New("invalid token")

// Claims represents the session claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session returns the read-only snapshot handed to the role router.
func (c Claims) Session() *access.Session {
	return &access.Session{User: &access.User{Role: c.Role, Name: c.Name, Image: c.Image}}
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  audience,
			ExpiresAt: now.Add(conf.Session.ExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  usr.Name,
		Email: usr.Email,
		Role:  usr.Role,
		Image: usr.Image,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(conf *core.Config, raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	if !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// sessionProvider reads sessions from the session cookie or a Bearer token.
type sessionProvider struct {
	conf *core.Config
}

func (p sessionProvider) rawToken(ctx echo.Context) string {
	if cookie, err := ctx.Cookie(p.conf.Session.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, bearerScheme) {
		return strings.TrimSpace(auth[len(bearerScheme):])
	}
	return ""
}

// claims returns nil when the request carries no valid token.
func (p sessionProvider) claims(ctx echo.Context) *Claims {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return claims
	}
	var claims *Claims
	if raw := p.rawToken(ctx); raw != "" {
		if parsed, err := parseToken(p.conf, raw); err == nil {
			claims = parsed
		}
	}
	ctx.Set(contextClaimsKey, claims)
	return claims
}

// Session returns the request session, or nil when signed out.
// Missing, expired, malformed and badly signed tokens all read as signed out.
func (p sessionProvider) Session(ctx echo.Context) *access.Session {
	if sess, ok := ctx.Get(contextSessionKey).(*access.Session); ok {
		return sess
	}
	var sess *access.Session
	if claims := p.claims(ctx); claims != nil {
		sess = claims.Session()
	}
	ctx.Set(contextSessionKey, sess)
	return sess
}

func (p sessionProvider) setCookie(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     p.conf.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(p.conf.Session.ExpirationDelta.Seconds()),
		HttpOnly: true,
		Secure:   !p.conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p sessionProvider) clearCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     p.conf.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !p.conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func authenticate(ctx context.Context, conf *core.Config, svc *user.Service, email, pwd string) (*Claims, user.User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, user.User{}, errAuthenticationFailed
		}
		return nil, user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	if err != nil {
		return nil, user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return GetUserClaims(conf, usr), usr, nil
}
