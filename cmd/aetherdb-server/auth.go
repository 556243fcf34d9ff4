// Authentication for the AetherDB TCP server. Clients either log in
// with credentials and receive an HS256 JWT, or resume with a token
// from an earlier login:
//
//	AUTH LOGIN <user> [password]
//	AUTH JWT <token>
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
)

// tokenTTL is how long issued tokens stay valid.
const tokenTTL = 24 * time.Hour

// ConnectionState tracks per-connection authentication.
type ConnectionState struct {
	session *auth.Session
}

func (cs *ConnectionState) IsAuthenticated() bool {
	return cs.session != nil
}

// issueToken mints an HS256 JWT naming the user in the subject claim.
func (s *Server) issueToken(username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	return token.SignedString([]byte(s.secret))
}

// validateToken checks signature and expiry and returns the subject.
func (s *Server) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("token missing subject")
	}
	return subject, nil
}

// handleAuth processes an AUTH line and updates the connection state.
func (s *Server) handleAuth(line string, state *ConnectionState) Response {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return authError("invalid AUTH command: expected AUTH <type> ...")
	}

	switch strings.ToUpper(parts[1]) {
	case "LOGIN":
		if len(parts) < 3 || len(parts) > 4 {
			return authError("usage: AUTH LOGIN <user> [password]")
		}
		username := parts[2]
		password := ""
		if len(parts) == 4 {
			password = parts[3]
		}

		session, err := s.engine.Authenticate(username, password)
		if err != nil {
			return authError(err.Error())
		}
		state.session = session

		tokenString, err := s.issueToken(username)
		if err != nil {
			return authError(err.Error())
		}
		return authOK(AuthResponse{
			Authenticated: true,
			User:          username,
			Token:         tokenString,
			ExpiresIn:     int(tokenTTL.Seconds()),
		})

	case "JWT":
		if len(parts) != 3 {
			return authError("usage: AUTH JWT <token>")
		}
		username, err := s.validateToken(parts[2])
		if err != nil {
			return authError(err.Error())
		}
		session, err := s.engine.Resume(username)
		if err != nil {
			return authError(err.Error())
		}
		state.session = session
		return authOK(AuthResponse{Authenticated: true, User: username})

	default:
		return authError(fmt.Sprintf("unsupported auth type: %s", parts[1]))
	}
}

func authError(msg string) Response {
	return Response{Success: false, Type: "auth", Error: msg}
}

func authOK(ar AuthResponse) Response {
	data, _ := json.Marshal(ar)
	return Response{Success: true, Type: "auth", Result: data}
}
