package usecase

import (
	"io"
)

// ConvertInput загруженный файл для синхронной конвертации
type ConvertInput struct {
	FileName   string    // Имя от клиента, используется только расширение
	FileReader io.Reader // nil, если файла в запросе нет
}

// RegisterInput данные регистрации
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput данные входа
type LoginInput struct {
	Email    string
	Password string
}

// CreateTaskInput входные данные для создания асинхронной задачи
type CreateTaskInput struct {
	FileName   string
	FileSize   int64 // -1, если размер неизвестен
	FileReader io.Reader
}
