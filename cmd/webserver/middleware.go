package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sessionName = "popquiz-session"

const (
	roleTeacher = "teacher"
	roleStudent = "student"
)

// identity is read from the session cookie written by the login service
type identity struct {
	UserID int64
	Role   string
}

type identityKey struct{}

func identityFrom(ctx context.Context) identity {
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

// requireUser rejects requests without a logged-in session
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.store.Get(r, sessionName)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid session")
			return
		}
		userID, _ := session.Values["user_id"].(int64)
		role, _ := session.Values["role"].(string)
		if userID <= 0 || (role != roleTeacher && role != roleStudent) {
			writeJSONError(w, http.StatusUnauthorized, "login required")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, identity{UserID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identityFrom(r.Context()).Role != role {
				writeJSONError(w, http.StatusForbidden, "only a "+role+" can do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// visitor pairs a limiter with the last time it was used
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userLimiter throttles model-backed requests per user
type userLimiter struct {
	mu        sync.Mutex
	visitors  map[int64]*visitor
	every     rate.Limit
	burst     int
	expiry    time.Duration
	lastPrune time.Time
}

func newUserLimiter(maxRequests int, window time.Duration) *userLimiter {
	if maxRequests <= 0 {
		return nil
	}
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	return &userLimiter{
		visitors:  make(map[int64]*visitor),
		every:     rate.Every(window / time.Duration(maxRequests)),
		burst:     maxRequests,
		expiry:    expiry,
		lastPrune: time.Now(),
	}
}

func (ul *userLimiter) allow(userID int64) bool {
	ul.mu.Lock()
	now := time.Now()
	if now.Sub(ul.lastPrune) > ul.expiry {
		for id, v := range ul.visitors {
			if now.Sub(v.lastSeen) > ul.expiry {
				delete(ul.visitors, id)
			}
		}
		ul.lastPrune = now
	}
	v, ok := ul.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(ul.every, ul.burst)}
		ul.visitors[userID] = v
	}
	v.lastSeen = now
	ul.mu.Unlock()

	return v.limiter.Allow()
}

// rateLimited must run after requireUser. A nil limiter lets everything through.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.allow(identityFrom(r.Context()).UserID) {
			writeJSONError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
