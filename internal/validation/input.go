package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength       = 3
	MaxUsernameLength       = 30
	MaxAddressLength        = 255
	MaxDescriptionLength    = 2000
	MaxFeedbackLength       = 2000
	MinServiceNameLength    = 2
	MaxServiceNameLength    = 100
	MaxServiceDescription   = 2000
	MaxExperienceLength     = 500
	MaxEstimatedDuration    = 100
	MaxBasePrice            = 10000000.0
	MaxServiceLocationLength = 100
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	pincodeRegex  = regexp.MustCompile(`^[0-9]{4,10}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	emailLocal    = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomain   = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateEmail проверяет формат email. Пустое значение допустимо.
func ValidateEmail(email *string) error {
	if email == nil || *email == "" {
		return nil
	}

	value := strings.ToLower(strings.TrimSpace(*email))
	parts := strings.Split(value, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if !emailLocal.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomain.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidatePhone проверяет номер телефона. Пустое значение допустимо.
func ValidatePhone(phone *string) error {
	if phone == nil || *phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(strings.TrimSpace(*phone)) {
		return fmt.Errorf("номер телефона должен содержать от 7 до 15 цифр")
	}
	return nil
}

// ValidatePincode проверяет почтовый индекс.
func ValidatePincode(pincode *string) error {
	if pincode == nil || *pincode == "" {
		return nil
	}
	if !pincodeRegex.MatchString(strings.TrimSpace(*pincode)) {
		return fmt.Errorf("индекс должен состоять из 4-10 цифр")
	}
	return nil
}

// ValidateAddress проверяет адрес.
func ValidateAddress(address *string) error {
	return validateOptional("адрес", address, MaxAddressLength)
}

// ValidateExperience проверяет описание опыта специалиста.
func ValidateExperience(experience *string) error {
	return validateOptional("опыт", experience, MaxExperienceLength)
}

// ValidateRequestDescription проверяет описание заявки или отклика.
func ValidateRequestDescription(description *string) error {
	return validateOptional("описание заявки", description, MaxDescriptionLength)
}

// ValidateFeedback проверяет отзыв заказчика.
func ValidateFeedback(feedback *string) error {
	return validateOptional("отзыв", feedback, MaxFeedbackLength)
}

// ValidateServiceName проверяет название услуги.
func ValidateServiceName(name string) error {
	if err := ValidateNonEmpty("название услуги", name); err != nil {
		return err
	}
	return ValidateLength("название услуги", strings.TrimSpace(name), MinServiceNameLength, MaxServiceNameLength)
}

// ValidateServiceFields проверяет необязательные поля услуги.
func ValidateServiceFields(description, duration, location *string) error {
	if err := validateOptional("описание услуги", description, MaxServiceDescription); err != nil {
		return err
	}
	if err := validateOptional("длительность", duration, MaxEstimatedDuration); err != nil {
		return err
	}
	return validateOptional("местоположение", location, MaxServiceLocationLength)
}

// ValidateBasePrice проверяет базовую цену услуги.
func ValidateBasePrice(price float64) error {
	if price < 0 {
		return fmt.Errorf("цена не может быть отрицательной")
	}
	if price > MaxBasePrice {
		return fmt.Errorf("цена не может превышать %.0f", MaxBasePrice)
	}
	return nil
}

func validateOptional(fieldName string, value *string, max int) error {
	if value == nil || *value == "" {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}
