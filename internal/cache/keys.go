package cache

import "fmt"

// ResultKey addresses a stored reconciliation result
func ResultKey(reconciliationID string) string {
	return fmt.Sprintf("result:%s", reconciliationID)
}
