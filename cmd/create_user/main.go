package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Yatesh03/Fintract-lite/models"
	"github.com/Yatesh03/Fintract-lite/pkg/money"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Creates a user with an optional opening balance. Registration always starts
// at zero and the API only moves balance through payments, so this is the ops
// path for funding accounts.
func main() {
	name := flag.String("name", "", "display name (required)")
	email := flag.String("email", "", "email (required, unique)")
	password := flag.String("password", "", "password (required, min 6)")
	balance := flag.String("balance", "0", "opening balance in rupees")
	upi := flag.String("upi", "", "optional UPI id")
	flag.Parse()

	if *name == "" || *email == "" || len(*password) < 6 {
		fmt.Println("usage: create_user -name NAME -email EMAIL -password PASS [-balance 500] [-upi id@bank]")
		os.Exit(2)
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	bal, err := decimal.NewFromString(*balance)
	if err != nil {
		log.Fatalf("invalid balance %q: %v", *balance, err)
	}
	balPaise, err := money.ToPaise(bal)
	if err != nil || balPaise < 0 {
		log.Fatalf("invalid balance %q", *balance)
	}

	addr := strings.ToLower(strings.TrimSpace(*email))
	var existing models.User
	if err := db.Where("email = ?", addr).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", addr, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{Name: *name, Email: addr, HashedPassword: hpw, BalancePaise: balPaise}
	if v := strings.TrimSpace(*upi); v != "" {
		user.UpiID = &v
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d balance=%s\n", addr, user.ID, money.Format(user.BalancePaise))
}
