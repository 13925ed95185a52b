package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestEndToEndWithRealBinary(t *testing.T) {
	tempDir := t.TempDir()
	archivePath := writeTestArchive(t, tempDir)

	// Собираем бинарный файл
	binaryPath := filepath.Join(tempDir, "exporter")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/exporter")
	buildCmd.Dir = "../.."
	if err := buildCmd.Run(); err != nil {
		t.Skipf("Пропускаем сквозной тест: не удалось собрать бинарный файл: %v", err)
	}

	// Запускаем конвертацию со встроенным шрифтом через минимальную тему
	themePath := filepath.Join(tempDir, "theme.yml")
	if err := os.WriteFile(themePath, []byte("font:\n  family: Helvetica\n"), 0644); err != nil {
		t.Fatalf("Не удалось записать файл темы: %v", err)
	}

	outputPath := filepath.Join(tempDir, "chat.pdf")
	runCmd := exec.Command(binaryPath,
		"-theme", themePath,
		"-o", outputPath,
		"-me", "Alice",
		archivePath,
	)
	out, err := runCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Конвертация завершилась ошибкой: %v\n%s", err, out)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		t.Fatalf("Результат не создан: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("Результат пуст")
	}
}
