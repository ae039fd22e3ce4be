// devtoken はローカル確認用のアクセストークンを発行する。
//
//	go run ./cmd/devtoken -sub 1 -role ADMIN
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"catering/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

func main() {
	sub := flag.Int64("sub", 1, "user id")
	role := flag.String("role", string(model.RoleUser), "USER or ADMIN")
	tv := flag.Int("tv", 0, "token version")
	ttl := flag.Duration("ttl", 15*time.Minute, "lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fail(err)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fail(errors.New("JWT_SECRET is required"))
	}

	r := model.Role(strings.ToUpper(*role))
	if r != model.RoleUser && r != model.RoleAdmin {
		fail(fmt.Errorf("unknown role %q", *role))
	}

	signed, err := issue([]byte(secret), *sub, r, *tv, time.Now(), *ttl)
	if err != nil {
		fail(err)
	}
	fmt.Println(signed)
}

func issue(secret []byte, userID int64, role model.Role, tokenVersion int, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"tv":   tokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
