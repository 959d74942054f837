package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

// RefKind — вид ссылки на изображение
type RefKind int

const (
	RefLocal RefKind = iota
	RefRemote
)

// ImageRef описывает разобранную ссылку на изображение: локальный путь или URL.
// Вид ссылки определяется один раз на границе, дальше слои работают с готовым вариантом.
type ImageRef struct {
	Kind      RefKind
	Raw       string
	canonical string
}

// ParseImageRef разбирает строковую ссылку и канонизирует её.
// Для URL: схема и хост приводятся к нижнему регистру, fragment отбрасывается.
// Для локального пути: путь очищается от лишних сегментов.
func ParseImageRef(s string) (ImageRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ImageRef{}, e.ErrImageRefRequired
	}

	if isRemote(s) {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return ImageRef{}, e.Wrap(s, e.ErrInvalidParameter)
		}
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		u.Fragment = ""

		return ImageRef{
			Kind:      RefRemote,
			Raw:       s,
			canonical: u.String(),
		}, nil
	}

	return ImageRef{
		Kind:      RefLocal,
		Raw:       s,
		canonical: filepath.Clean(s),
	}, nil
}

// Canonical возвращает канонизированную форму ссылки.
func (r ImageRef) Canonical() string {
	return r.canonical
}

// CacheKey возвращает ключ кэша содержимого: sha1 от канонизированной ссылки.
func (r ImageRef) CacheKey() string {
	sum := sha1.Sum([]byte(r.canonical))
	return hex.EncodeToString(sum[:])
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// DecodedImage представляет проверенные байты изображения
type DecodedImage struct {
	Bytes  []byte
	Format string // jpeg, png, gif, webp
	Width  int
	Height int
}

func NewDecodedImage(data []byte, format string, width int, height int) *DecodedImage {
	return &DecodedImage{
		Bytes:  data,
		Format: format,
		Width:  width,
		Height: height,
	}
}
