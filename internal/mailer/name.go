package mailer

import "strings"

// fallbackName labels a requester when the form carried no usable name.
const fallbackName = "Rockstar"

// SplitName derives first/last/display names. A combined full-name string
// wins over the separate nombre/apellido fields when present.
func SplitName(userName, nombre, apellido string) (first, last, display string) {
	if trimmed := strings.TrimSpace(userName); trimmed != "" {
		parts := strings.Fields(trimmed)
		first = parts[0]
		last = strings.Join(parts[1:], " ")
		return first, last, trimmed
	}

	first = strings.TrimSpace(nombre)
	last = strings.TrimSpace(apellido)
	display = strings.TrimSpace(strings.Join(strings.Fields(first+" "+last), " "))
	if display == "" {
		display = fallbackName
	}
	if first == "" {
		first = fallbackName
	}
	return first, last, display
}

// GuessExtAndMime infers the attachment filename extension and MIME type
// from the image URL suffix. Anything unrecognized is treated as JPEG.
func GuessExtAndMime(url string) (ext, mime string) {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "png", "image/png"
	case strings.HasSuffix(lower, ".webp"):
		return "webp", "image/webp"
	default:
		return "jpg", "image/jpeg"
	}
}
