package common

import (
	"fmt"
	"strings"

	"voltz-ledger-go/internal/models"
)

// ReportWidth is the width of the operator report banners
const ReportWidth = 80

// PrintHeader prints a report title between two rules
func PrintHeader(title string) {
	fmt.Println("\n" + strings.Repeat("=", ReportWidth))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", ReportWidth))
}

// PrintFooter prints a closing summary line between two rules
func PrintFooter(message string) {
	fmt.Println("\n" + strings.Repeat("=", ReportWidth))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", ReportWidth) + "\n")
}

// PrintWalletHeader opens the box for one wallet
func PrintWalletHeader(wallet models.Wallet) {
	fmt.Printf("\n┌─ Owner: %s\n", wallet.OwnerId)
	fmt.Printf("│  Wallet: %s (v%d, updated: %s)\n",
		ShortId(wallet.Id),
		wallet.Version,
		wallet.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("├" + strings.Repeat("─", ReportWidth-2))
}

// PrintWalletRow prints one labelled Voltz amount inside a wallet box
func PrintWalletRow(label string, v models.Voltz, last bool) {
	fmt.Print(FormatWalletRow(label, v.String(), last))
}

// PrintStatusRow prints one labelled free-text value inside a wallet box
func PrintStatusRow(label, status string, last bool) {
	fmt.Print(FormatWalletRow(label, status, last))
}

// FormatWalletRow right-aligns value after a fixed-width label
func FormatWalletRow(label, value string, last bool) string {
	return fmt.Sprintf("%s %-20s: %20s\n", boxPrefix(last), label, value)
}

// ShortId trims long ids for display
func ShortId(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func boxPrefix(last bool) string {
	if last {
		return "└  "
	}
	return "│  "
}
