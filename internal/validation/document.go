package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// DocumentSniffLen - сколько первых байт файла нужно для определения типа.
const DocumentSniffLen = 512

// ValidatePDF проверяет расширение и магические байты документа специалиста.
func ValidatePDF(filename string, head []byte) error {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return fmt.Errorf("документ должен быть в формате PDF")
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return fmt.Errorf("не удалось определить тип файла")
	}
	if kind.Extension != "pdf" {
		return fmt.Errorf("расширение файла не соответствует реальному типу (%s)", kind.MIME.Value)
	}
	return nil
}
