package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePortal()
	c.normalizePipeline()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePortal() {
	c.Portal.BaseURL = strings.TrimRight(strings.TrimSpace(c.Portal.BaseURL), "/")
	if env := os.Getenv("RECHECK_PORTAL_USERNAME"); env != "" {
		c.Portal.Username = env
	}
	if env := os.Getenv("RECHECK_PORTAL_PASSWORD"); env != "" {
		c.Portal.Password = env
	}
	if c.Portal.FetchTimeout <= 0 {
		c.Portal.FetchTimeout = defaultFetchTimeout
	}
	if c.Portal.LoginTimeout <= 0 {
		c.Portal.LoginTimeout = defaultLoginTimeout
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.BatchLimit <= 0 {
		c.Pipeline.BatchLimit = defaultBatchLimit
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultWorkers
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.Pdftoppm) == "" {
		c.Tools.Pdftoppm = defaultPdftoppm
	}
	if strings.TrimSpace(c.Tools.Tesseract) == "" {
		c.Tools.Tesseract = defaultTesseract
	}
	if c.Tools.DPI <= 0 {
		c.Tools.DPI = defaultDPI
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
