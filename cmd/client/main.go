package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	CacheKey     string `json:"cache_key,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func main() {
	var (
		serverAddr string
		outputPath string
		mainUser   string
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.StringVar(&outputPath, "o", "chat.pdf", "Output PDF path")
	flag.StringVar(&mainUser, "me", "", "Sender whose messages align to the right")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Exactly one archive path is required. Usage: client [flags] <export.zip>")
	}
	archivePath := flag.Arg(0)

	// Создание многочастной формы для загрузки архива
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	file, err := os.Open(archivePath)
	if err != nil {
		log.Fatalf("Не удалось открыть файл %s: %v", archivePath, err)
	}

	part, err := writer.CreateFormFile("file", filepath.Base(archivePath))
	if err != nil {
		_ = file.Close()
		log.Fatalf("Не удалось создать файл формы: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		_ = file.Close()
		log.Fatalf("Не удалось записать данные файла: %v", err)
	}
	if err := file.Close(); err != nil {
		log.Printf("Warning: failed to close file %s: %v", archivePath, err)
	}

	if mainUser != "" {
		if err := writer.WriteField("main_user", mainUser); err != nil {
			log.Fatalf("Не удалось записать поле формы: %v", err)
		}
	}

	// Важно закрыть writer, чтобы записать завершающую границу
	if err := writer.Close(); err != nil {
		log.Fatalf("Не удалось закрыть multipart writer: %v", err)
	}

	// Отправка архива на сервер
	resp, err := http.Post(serverAddr+"/api/v1/convert", writer.FormDataContentType(), &body)
	if err != nil {
		log.Fatalf("Не удалось отправить запрос: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("Сервер вернул статус: %d", resp.StatusCode)
	}

	var taskResp map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&taskResp); err != nil {
		log.Fatalf("Не удалось декодировать ответ: %v", err)
	}
	taskID := taskResp["task_id"]
	if taskID == "" {
		log.Fatal("Идентификатор задачи не найден в ответе")
	}

	fmt.Printf("Задача создана с идентификатором: %s\n", taskID)

	// Опрос статуса задачи
	for {
		time.Sleep(5 * time.Second) // Ожидание 5 секунд перед следующим опросом

		resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/%s", serverAddr, taskID))
		if err != nil {
			log.Fatalf("Не удалось опросить статус задачи: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Fatalf("Сервер вернул статус: %d", resp.StatusCode)
		}

		var statusResp TaskStatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
			log.Fatalf("Не удалось декодировать ответ статуса: %v", err)
		}

		fmt.Printf("Статус задачи: %s\n", statusResp.Status)

		switch statusResp.Status {
		case "completed":
			// Скачивание готового документа
			resultResp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/%s/result", serverAddr, taskID))
			if err != nil {
				log.Fatalf("Не удалось получить результат: %v", err)
			}
			defer resultResp.Body.Close()

			if resultResp.StatusCode != http.StatusOK {
				log.Fatalf("Сервер вернул статус для результата: %d", resultResp.StatusCode)
			}

			out, err := os.Create(outputPath)
			if err != nil {
				log.Fatalf("Не удалось создать файл %s: %v", outputPath, err)
			}
			written, err := io.Copy(out, resultResp.Body)
			if err != nil {
				_ = out.Close()
				log.Fatalf("Не удалось записать результат: %v", err)
			}
			if err := out.Close(); err != nil {
				log.Fatalf("Не удалось закрыть файл результата: %v", err)
			}

			fmt.Printf("Документ сохранен: %s (%d байт)\n", outputPath, written)
			return
		case "failed":
			fmt.Printf("Задача не выполнена: %s\n", statusResp.ErrorMessage)
			os.Exit(1)
		case "pending", "processing":
			// Продолжение опроса
			continue
		default:
			log.Fatalf("Неизвестный статус задачи: %s", statusResp.Status)
		}
	}
}
