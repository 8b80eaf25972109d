package intake

import (
	"fmt"
	"strings"

	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
)

const (
	fabricPrefix      = "FAB"
	minFabricDigits   = 2
	pieceCodeWidth    = 4
	itemTypeSeparator = ":"
)

// NormalizeItemCode canonicalizes a product code for its type. Fabric codes
// become FAB followed by at least two digits; piece codes are digits padded
// to four places. Already-normalized codes come back unchanged.
func NormalizeItemCode(code string, itemType enums.ItemType) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", invalidItemCode(code, itemType, "code is empty")
	}

	switch itemType {
	case enums.ItemTypeFabric:
		upper := strings.ToUpper(trimmed)
		digits := strings.TrimPrefix(upper, fabricPrefix)
		if len(digits) < minFabricDigits || !allDigits(digits) {
			return "", invalidItemCode(code, itemType, fmt.Sprintf("fabric codes are %s followed by at least %d digits", fabricPrefix, minFabricDigits))
		}
		return fabricPrefix + digits, nil
	case enums.ItemTypePiece:
		if !allDigits(trimmed) {
			return "", invalidItemCode(code, itemType, "piece codes are numeric")
		}
		if len(trimmed) >= pieceCodeWidth {
			return trimmed, nil
		}
		return strings.Repeat("0", pieceCodeWidth-len(trimmed)) + trimmed, nil
	default:
		return "", invalidItemCode(code, itemType, "unknown item type")
	}
}

// splitTypedCode honours an explicit "fabric:" or "piece:" prefix on a line.
func splitTypedCode(line string, fallback enums.ItemType) (string, enums.ItemType) {
	prefix, rest, found := strings.Cut(line, itemTypeSeparator)
	if !found {
		return line, fallback
	}
	itemType, err := enums.ParseItemType(prefix)
	if err != nil {
		return line, fallback
	}
	return strings.TrimSpace(rest), itemType
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invalidItemCode(code string, itemType enums.ItemType, reason string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidItemCode, fmt.Sprintf("invalid item code %q", strings.TrimSpace(code))).
		WithDetails(map[string]string{
			"code":      code,
			"item_type": itemType.String(),
			"reason":    reason,
		})
}

