package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/dsl"
	"github.com/reoring/goshape/middleware"
)

// User represents a user in our system
type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Age    int    `json:"age"`
	Active bool   `json:"active"`
}

// UserStore is a simple in-memory store
type UserStore struct {
	mu     sync.RWMutex
	users  map[int]User
	nextID int
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:  make(map[int]User),
		nextID: 1,
	}
}

func (s *UserStore) Create(user User) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = user

	return user
}

func (s *UserStore) GetAll() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users
}

func (s *UserStore) GetByID(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	return user, exists
}

func (s *UserStore) Update(id int, user User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return false
	}

	user.ID = id
	s.users[id] = user
	return true
}

func (s *UserStore) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return false
	}

	delete(s.users, id)
	return true
}

// Server holds our application state
type Server struct {
	store      *UserStore
	userSchema *goshape.Schema
}

func NewServer() *Server {
	// The compact shorthand covers the flat fields; the builder adds what the
	// shorthand cannot say: the server-assigned id is readOnly, so request
	// validation strips it, and email carries a format.
	userSchema := dsl.MustFields("name:s, email:s, age:i=18, active:b=true")
	userSchema.Properties.Set("email", dsl.String().Format("email").Schema())
	userSchema.Properties.Set("id", dsl.Integer().ReadOnly().Schema())
	userSchema.AdditionalProperties = denyExtras()

	return &Server{
		store:      NewUserStore(),
		userSchema: userSchema,
	}
}

func denyExtras() *goshape.AdditionalProperties {
	allowed := false
	return &goshape.AdditionalProperties{Has: &allowed}
}

func (s *Server) usersHandler() http.Handler {
	create := middleware.ValidateRequest(s.userSchema)(http.HandlerFunc(s.handleCreateUser))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetUsers(w, r)
		case http.MethodPost:
			create.ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	// Extract ID from path
	path := strings.TrimPrefix(r.URL.Path, "/users/")
	id, err := strconv.Atoi(path)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetUser(w, r, id)
	case http.MethodPatch:
		s.handlePatchUser(w, r, id)
	case http.MethodDelete:
		s.handleDeleteUser(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetUsers(w http.ResponseWriter, _ *http.Request) {
	users := s.store.GetAll()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, _ *http.Request, id int) {
	user, exists := s.store.GetByID(id)
	if !exists {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	// The middleware already validated and coerced the body: defaults are
	// filled in, the readOnly id is stripped, unknown keys were rejected.
	clean, ok := middleware.CleanFromContext(r.Context())
	if !ok {
		http.Error(w, "missing validated body", http.StatusInternalServerError)
		return
	}

	user, err := toUser(clean)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error: %v", err), http.StatusInternalServerError)
		return
	}
	createdUser := s.store.Create(user)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createdUser)
}

func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request, id int) {
	// Check if user exists
	existingUser, exists := s.store.GetByID(id)
	if !exists {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	// Sparse mode validates only the fields the request actually sent, so
	// the coerced map's keys double as the presence information.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	clean, val, err := goshape.CheckJSON(r.Context(), s.userSchema, body,
		goshape.Options{Sparse: true, Request: true, DupKeys: goshape.ExtraFail})
	if err != nil {
		http.Error(w, fmt.Sprintf("Error: %v", err), http.StatusInternalServerError)
		return
	}
	if !val.Valid() {
		middleware.WriteValidation(w, val)
		return
	}

	patch, _ := clean.(map[string]any)
	updatedUser := existingUser
	updatedFields := make([]string, 0, len(patch))
	for field, value := range patch {
		switch field {
		case "name":
			updatedUser.Name, _ = value.(string)
		case "email":
			updatedUser.Email, _ = value.(string)
		case "age":
			if n, ok := value.(int64); ok {
				updatedUser.Age = int(n)
			}
		case "active":
			updatedUser.Active, _ = value.(bool)
		}
		updatedFields = append(updatedFields, field)
	}

	s.store.Update(id, updatedUser)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user":           updatedUser,
		"updated_fields": updatedFields,
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, _ *http.Request, id int) {
	if !s.store.Delete(id) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The schema marshals to its canonical JSON form.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.userSchema)
}

// toUser moves a coerced map into the typed representation.
func toUser(clean any) (User, error) {
	m, ok := clean.(map[string]any)
	if !ok {
		return User{}, fmt.Errorf("expected an object, got %T", clean)
	}
	var user User
	user.Name, _ = m["name"].(string)
	user.Email, _ = m["email"].(string)
	if n, ok := m["age"].(int64); ok {
		user.Age = int(n)
	}
	user.Active, _ = m["active"].(bool)
	return user, nil
}

func main() {
	server := NewServer()

	// Add some initial data
	server.store.Create(User{Name: "Taro", Email: "taro@example.com", Age: 30, Active: true})
	server.store.Create(User{Name: "Hanako", Email: "hanako@example.com", Age: 25, Active: true})

	// Setup routes
	http.Handle("/users", server.usersHandler())
	http.HandleFunc("/users/", server.handleUserByID)
	http.HandleFunc("/schema", server.handleSchema)

	// Health check
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Root handler with usage instructions
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "goshape User API Sample",
			"endpoints": map[string]string{
				"GET /users":         "Get all users",
				"POST /users":        "Create a new user",
				"GET /users/{id}":    "Get user by ID",
				"PATCH /users/{id}":  "Partially update user (sparse validation)",
				"DELETE /users/{id}": "Delete user",
				"GET /schema":        "Get the canonical schema JSON",
				"GET /health":        "Health check",
			},
			"examples": map[string]interface{}{
				"create_user": map[string]interface{}{
					"method": "POST",
					"url":    "/users",
					"body": map[string]interface{}{
						"name":  "Taro",
						"email": "taro@example.com",
						"age":   30,
					},
					"note": "age and active fall back to their defaults when omitted",
				},
				"partial_update": map[string]interface{}{
					"method": "PATCH",
					"url":    "/users/1",
					"body": map[string]interface{}{
						"name": "Jiro",
					},
					"note": "Only updates the 'name' field, other fields remain unchanged",
				},
			},
		})
	})

	log.Println("🚀 goshape User API server starting on :8080")
	log.Println("📖 Visit http://localhost:8080 for usage instructions")
	log.Println("🔍 Visit http://localhost:8080/schema to see the canonical schema")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
