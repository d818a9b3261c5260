package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// readTokenFile 读取持久化令牌；文件不存在视为匿名。
func readTokenFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("令牌路径不能为空")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("读取令牌文件失败: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// writeTokenFile 通过临时文件 + rename 原子落盘，权限收紧到 0600。
func writeTokenFile(path, token string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("创建令牌目录失败: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("创建临时令牌文件失败: %w", err)
	}
	tempName := tempFile.Name()

	_, err = tempFile.WriteString(token + "\n")
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tempName, 0o600)
	}
	if err != nil {
		os.Remove(tempName)
		return fmt.Errorf("写入令牌文件失败: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("落盘令牌文件失败: %w", err)
	}
	return nil
}

// removeTokenFile 删除令牌文件；不存在不算错误。
func removeTokenFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("删除令牌文件失败: %w", err)
	}
	return nil
}
