package geoip

import (
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/oschwald/maxminddb-golang"
)

var (
	mu     sync.Mutex
	reader *maxminddb.Reader
	loaded bool
)

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

func getReader() *maxminddb.Reader {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return reader
	}
	loaded = true
	path := strings.TrimSpace(os.Getenv("TURNGUARD_GEOIP_DB"))
	if path == "" {
		return nil
	}
	r, err := maxminddb.Open(path)
	if err != nil {
		slog.Warn("failed to open GeoIP database", "path", path, "error", err)
		return nil
	}
	reader = r
	return reader
}

// CountryCode 查询 IP 对应的国家码，未配置库或查询失败返回空串
func CountryCode(ip string) string {
	r := getReader()
	if r == nil {
		return ""
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return ""
	}
	var record countryRecord
	if err := r.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Close 释放 GeoIP 库句柄
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if reader != nil {
		_ = reader.Close()
		reader = nil
	}
	loaded = false
}
