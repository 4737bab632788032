package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the notblank and trimmax rules to gin's validator.
// Lengths count code points after trimming surrounding whitespace.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Println("gin validator engine is not go-playground/validator; custom rules not registered")
			return
		}
		if err := v.RegisterValidation("notblank", notBlank); err != nil {
			log.Printf("register notblank: %v", err)
		}
		if err := v.RegisterValidation("trimmax", trimMax); err != nil {
			log.Printf("register trimmax: %v", err)
		}
	})
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func trimMax(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) <= limit
}

// bindingMessage picks a user-facing message for the first failed rule.
// Keys are "Field.tag" or just "Field".
func bindingMessage(err error, messages map[string]string, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			return m
		}
		if m, ok := messages[fe.Field()]; ok {
			return m
		}
	}
	return fallback
}

func internalError(c *gin.Context, action string, err error) {
	log.Printf("Error %s: %v", action, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
