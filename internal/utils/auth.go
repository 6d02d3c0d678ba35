package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/studypulse/backend/internal/normalization"
	"github.com/studypulse/backend/internal/types"
)

func NormalizeStudentFields(student *types.Student) {
	student.Email = normalization.ParseInputString(student.Email)
	student.Username = normalization.ParseInputString(student.Username)
	student.FullName = normalization.DisplayName(student.FullName)
}

func ValidateRegistration(student *types.Student) error {
	if student == nil {
		return fmt.Errorf("no student given, cannot proceed with registration")
	}
	if student.Email == "" {
		return fmt.Errorf("an email is required to register")
	}
	if student.Username == "" {
		return fmt.Errorf("a username is required to register")
	}
	if student.FullName == "" {
		return fmt.Errorf("a full name is required to register")
	}
	if len(student.Password) < 8 {
		return fmt.Errorf("a password of at least 8 characters is required to register")
	}
	return nil
}

func HashPassword(student *types.Student) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(student.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password")
	}
	student.Password = string(hashed)
	return nil
}

func CheckPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
