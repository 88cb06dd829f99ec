package domain

import (
	"path/filepath"
	"strings"
)

// DefaultExtension используется, если расширение клиента не из списка
const DefaultExtension = ".step"

// Расширения, по которым конвертер выбирает парсер, и их MIME типы
var extToContentType = map[string]string{
	".step": "model/step",
	".stp":  "model/step",
	".stl":  "model/stl",
}

// StagingExtension выбирает расширение временного файла.
// Из имени клиента берётся только расширение, и только из списка.
func StagingExtension(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := extToContentType[ext]; ok {
		return ext
	}
	return DefaultExtension
}

// ContentTypeForExtension возвращает MIME тип для расширения из списка
func ContentTypeForExtension(ext string) string {
	if ct, ok := extToContentType[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
