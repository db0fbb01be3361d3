package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"atlas/internal/auth"
	"atlas/internal/cache"
	"atlas/internal/models"

	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt input limit
	userCacheTTL      = 5 * time.Minute
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// commonPasswords is a short deny list of the most guessed passwords.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {},
	"123456789": {}, "1234567890": {}, "qwerty123": {}, "qwertyuiop": {},
	"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {},
	"baseball": {}, "welcome1": {}, "admin123": {}, "letmein1": {},
	"abc12345": {}, "trustno1": {}, "passw0rd": {}, "superman": {},
}

var users cache.Cache[uint, models.User] = cache.New[uint, models.User]()

// UserCache exposes the session user cache so the server can purge it.
func UserCache() cache.Cache[uint, models.User] {
	return users
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	Password1 string `json:"password1" validate:"required"`
	Password2 string `json:"password2" validate:"required,eqfield=Password1"`
}

// Register creates an account after checking the username and password rules.
func Register(ctx context.Context, db *gorm.DB, in RegisterInput) (*models.User, error) {
	db = db.WithContext(ctx)
	in.Username = strings.TrimSpace(in.Username)

	verr := &ValidationError{}
	if err := validateStruct(in); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}
	if in.Username != "" && !verr.Has("username") {
		if !usernamePattern.MatchString(in.Username) {
			verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
		} else {
			var count int64
			if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("check username: %w", err)
			}
			if count > 0 {
				verr.Add("username", "A user with that username already exists.")
			}
		}
	}
	if !verr.Has("password1") && !verr.Has("password2") {
		for _, msg := range passwordProblems(in.Password1, in.Username) {
			verr.Add("password2", msg)
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password1)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Username: in.Username, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fieldError("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate returns the user whose credentials match.
func Authenticate(ctx context.Context, db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser loads the user with id straight from the database.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

// LookupUser returns the user with id, served from a short-lived cache.
func LookupUser(ctx context.Context, db *gorm.DB, id uint) (models.User, error) {
	return users.GetOrLoad(id, userCacheTTL, func() (models.User, error) {
		u, err := GetUser(ctx, db, id)
		if err != nil {
			return models.User{}, err
		}
		return *u, nil
	})
}

// ForgetUser drops id from the lookup cache so the next request reloads it.
func ForgetUser(id uint) {
	users.Delete(id)
}

// passwordProblems returns the strength rules password breaks.
func passwordProblems(password, username string) []string {
	var problems []string
	if len([]rune(password)) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		problems = append(problems, fmt.Sprintf("This password is too long. It must contain at most %d bytes.", maxPasswordBytes))
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "This password is entirely numeric.")
	}
	if tooSimilar(password, username) {
		problems = append(problems, "The password is too similar to the username.")
	}
	return problems
}

func tooSimilar(password, username string) bool {
	if password == "" || len(username) < 3 {
		return false
	}
	p, u := strings.ToLower(password), strings.ToLower(username)
	return strings.Contains(p, u) || strings.Contains(u, p)
}
