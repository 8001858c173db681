package authentication

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/claims"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const HEADER_USER_ID = "X-User-ID"

var (
	ErrMissingIdentity = errors.New("Authentication required: Missing user identifier header.")
	ErrInvalidIdentity = errors.New("Invalid user identifier format.")
	ErrUnknownIdentity = errors.New("Authentication failed: User not found.")
	ErrMissingToken    = errors.New("Authentication required: Missing bearer token.")
	ErrInvalidToken    = errors.New("Authentication failed: Invalid or expired token.")
	ErrForbiddenRole   = errors.New("Forbidden: insufficient role.")
)

// IdentityCache keeps resolved callers between requests.
type IdentityCache interface {
	Get(ctx context.Context, userId string) (claims.Caller, bool)
	Set(ctx context.Context, caller claims.Caller)
	Invalidate(ctx context.Context, userId string)
}

// Authenticator resolves the caller of a request, either from the X-User-ID
// header or from a signed bearer token depending on AppConfig.AuthMode.
type Authenticator struct {
	Store interface {
		GetUser(tx *gorm.DB, userId string) (store.User, error)
	} `inject:""`
	Config *shared.AppConfig `inject:""`
	Logger *log.Logger       `inject:""`
	// Cache is optional.
	Cache IdentityCache
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *Authenticator) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		caller, err := a.resolve(ctx, req)
		if err != nil {
			a.Logger.Warn(ctx, "failed to identify caller", "uri", req.RequestURI, "err", err)
			shared.EncodeErrorWithStatus(err, statusOf(err), w)
			return
		}
		next.ServeHTTP(w, req.WithContext(claims.WithCaller(ctx, caller)))
	})
}

// OptionalIdentity attaches the caller when one can be resolved and lets the
// request through either way.
func (a *Authenticator) OptionalIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		caller, err := a.resolve(ctx, req)
		if err == nil {
			req = req.WithContext(claims.WithCaller(ctx, caller))
		} else if err != ErrMissingIdentity && err != ErrMissingToken {
			a.Logger.Debug(ctx, "ignoring unresolvable caller", "err", err)
		}
		next.ServeHTTP(w, req)
	})
}

// Roles must be chained after Identity.
func (a *Authenticator) Roles(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		caller, ok := claims.GetCaller(req.Context())
		if !ok {
			shared.EncodeErrorWithStatus(ErrMissingIdentity, http.StatusUnauthorized, w)
			return
		}
		for _, role := range roles {
			if caller.Role == role {
				next.ServeHTTP(w, req)
				return
			}
		}
		shared.EncodeErrorWithStatus(ErrForbiddenRole, http.StatusForbidden, w)
	})
}

func (a *Authenticator) resolve(ctx context.Context, req *http.Request) (claims.Caller, error) {
	var userId string
	if a.Config.AuthMode == shared.AUTH_MODE_TOKEN {
		id, err := a.userIdFromToken(req)
		if err != nil {
			return claims.Caller{}, err
		}
		userId = id
	} else {
		userId = strings.TrimSpace(req.Header.Get(HEADER_USER_ID))
		if userId == "" {
			return claims.Caller{}, ErrMissingIdentity
		}
	}

	if _, err := uuid.Parse(userId); err != nil {
		return claims.Caller{}, ErrInvalidIdentity
	}

	if a.Cache != nil {
		if caller, ok := a.Cache.Get(ctx, userId); ok {
			return caller, nil
		}
	}

	user, err := a.Store.GetUser(nil, userId)
	if err == store.ErrUserNotFound {
		return claims.Caller{}, ErrUnknownIdentity
	}
	if err != nil {
		return claims.Caller{}, errors.Wrap(err, "failed to resolve caller")
	}

	caller := CallerOf(user)
	if a.Cache != nil {
		a.Cache.Set(ctx, caller)
	}
	return caller, nil
}

func (a *Authenticator) userIdFromToken(req *http.Request) (string, error) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	bearerToken := strings.Split(header, " ")
	if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "bearer") {
		return "", ErrInvalidToken
	}

	parsed := tokenClaims{}
	token, err := jwt.ParseWithClaims(bearerToken[1], &parsed, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(a.Config.TokenSecret), nil
	})
	if err != nil || !token.Valid || parsed.Subject == "" {
		return "", ErrInvalidToken
	}
	return parsed.Subject, nil
}

// IssueToken signs a HS256 token for caller, valid for AppConfig.TokenTtl.
func (a *Authenticator) IssueToken(caller claims.Caller) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.Config.TokenTtl)),
		},
	})
	signed, err := token.SignedString([]byte(a.Config.TokenSecret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

func CallerOf(user store.User) claims.Caller {
	return claims.Caller{
		UserId:   user.UserId.String,
		Username: user.Username.String,
		Name:     user.Name.String,
		Email:    user.Email.String,
		Role:     user.Role.String,
	}
}

func statusOf(err error) int {
	switch err {
	case ErrInvalidIdentity:
		return http.StatusBadRequest
	case ErrMissingIdentity, ErrUnknownIdentity, ErrMissingToken, ErrInvalidToken:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
