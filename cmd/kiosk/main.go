// Command kiosk is the terminal front end of the banking kiosk. It
// collects input, calls the core services and renders whatever they
// return; all business rules live in internal/services.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/nyxonbank/kiosk/internal/config"
	"github.com/nyxonbank/kiosk/internal/database"
	"github.com/nyxonbank/kiosk/internal/models"
	"github.com/nyxonbank/kiosk/internal/services"
)

var (
	titleColor   = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	faintColor   = color.New(color.Faint)
)

type kiosk struct {
	in    *bufio.Reader
	cfg   *config.Config
	audit *services.AuditService
	auth  *services.AuthService
	txn   *services.TransactionService
	admin *services.AdminService
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open ledger store: %v", err)
	}
	defer db.Close()

	audit := services.NewAuditService(db)
	k := &kiosk{
		in:    bufio.NewReader(os.Stdin),
		cfg:   cfg,
		audit: audit,
		auth:  services.NewAuthService(db, audit),
		txn:   services.NewTransactionService(db, audit),
		admin: services.NewAdminService(db, audit, cfg.Admin),
	}

	if err := audit.Record(nil, models.EventSystemBoot, 0, "Kiosk started"); err != nil {
		log.Printf("Failed to record boot event: %v", err)
	}

	k.welcomeLoop()
}

func (k *kiosk) welcomeLoop() {
	for {
		fmt.Println()
		titleColor.Println("=== Nyxon Online Banking Kiosk ===")
		fmt.Println("  [1] Insert card (login)")
		fmt.Println("  [2] Admin panel")
		fmt.Println("  [0] Shut down")

		switch k.prompt("Select") {
		case "1":
			k.login()
		case "2":
			k.adminGate()
		case "0":
			faintColor.Println("Goodbye.")
			return
		default:
			errorColor.Println("Unknown option.")
		}
	}
}

func (k *kiosk) login() {
	card := k.prompt("Card number")
	if card == "" {
		return
	}
	pin := k.promptPIN("PIN")
	if pin == "" {
		return
	}

	identity, err := k.auth.Authenticate(card, pin)
	if err != nil {
		if errors.Is(err, services.ErrAuthFailed) || errors.Is(err, services.ErrValidation) {
			errorColor.Println("Invalid card number or PIN.")
		} else {
			errorColor.Println("System error. Please try again later.")
		}
		return
	}

	successColor.Println("Login successful!")
	k.sessionLoop(identity)
}

func (k *kiosk) sessionLoop(identity *models.AccountIdentity) {
	for {
		fmt.Println()
		titleColor.Printf("Card %s\n", models.MaskCard(identity.CardNumber))
		fmt.Println("  [1] Transfer funds")
		fmt.Println("  [2] Pay bills")
		fmt.Println("  [3] Cash deposit")
		fmt.Println("  [4] Account information")
		fmt.Println("  [5] Transaction statement")
		fmt.Println("  [0] End session")

		switch k.prompt("Select") {
		case "1":
			k.transfer(identity.ID)
		case "2":
			k.payBill(identity.ID)
		case "3":
			k.deposit(identity.ID)
		case "4":
			k.accountInfo(identity.ID)
		case "5":
			k.statement(identity.ID)
		case "0":
			faintColor.Println("Session ended. Please take your card.")
			return
		default:
			errorColor.Println("Unknown option.")
		}
	}
}

func (k *kiosk) transfer(accountID int64) {
	recipient := k.prompt("Recipient card number")
	amount, ok := k.promptAmount()
	if recipient == "" || !ok {
		return
	}

	// One idempotency key per confirm press: a double-submit of the
	// same confirmation is rejected by the engine instead of applied
	// twice.
	receipt, err := k.txn.Transfer(services.TransferRequest{
		AccountID:      accountID,
		RecipientCard:  recipient,
		Amount:         amount,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		k.reportFailure(err)
		return
	}
	k.printReceipt(receipt)
}

func (k *kiosk) payBill(accountID int64) {
	billRef := k.prompt("Biller reference")
	amount, ok := k.promptAmount()
	if billRef == "" || !ok {
		return
	}

	receipt, err := k.txn.PayBill(services.BillPaymentRequest{
		AccountID:     accountID,
		BillReference: billRef,
		Amount:        amount,
	})
	if err != nil {
		k.reportFailure(err)
		return
	}
	k.printReceipt(receipt)
}

func (k *kiosk) deposit(accountID int64) {
	amount, ok := k.promptAmount()
	if !ok {
		return
	}

	receipt, err := k.txn.DepositCash(services.DepositRequest{
		AccountID: accountID,
		Amount:    amount,
	})
	if err != nil {
		k.reportFailure(err)
		return
	}
	k.printReceipt(receipt)
}

func (k *kiosk) accountInfo(accountID int64) {
	sum, err := k.txn.AccountSummary(accountID)
	if err != nil {
		k.reportFailure(err)
		return
	}

	fmt.Println()
	titleColor.Println("Account Information")
	fmt.Printf("  Account ID:  %d\n", sum.ID)
	fmt.Printf("  Card Number: %s\n", models.MaskCard(sum.CardNumber))
	fmt.Printf("  Balance:     %s\n", models.FormatAmount(sum.Balance))
}

func (k *kiosk) statement(accountID int64) {
	records, err := k.txn.RecentTransactions(accountID, k.cfg.History.TransactionLimit)
	if err != nil {
		k.reportFailure(err)
		return
	}

	fmt.Println()
	titleColor.Println("Transaction History")
	if len(records) == 0 {
		faintColor.Println("  No transactions on record.")
		return
	}
	fmt.Printf("  %-14s %14s %10s\n", "Type", "Amount", "Record ID")
	for _, rec := range records {
		fmt.Printf("  %-14s %14s %10d\n", rec.Type, models.FormatAmount(rec.Amount), rec.ID)
	}
}

func (k *kiosk) adminGate() {
	pin := k.promptPIN("Admin PIN")
	if !k.admin.Unlock(pin) {
		errorColor.Println("Access denied.")
		return
	}
	k.adminLoop()
}

func (k *kiosk) adminLoop() {
	for {
		fmt.Println()
		titleColor.Println("=== Admin Panel ===")
		fmt.Println("  [1] List accounts")
		fmt.Println("  [2] Audit log")
		fmt.Println("  [3] Create account")
		fmt.Println("  [4] RESET TRANSACTIONS")
		fmt.Println("  [0] Back to welcome")

		switch k.prompt("Select") {
		case "1":
			k.listAccounts()
		case "2":
			k.auditLog()
		case "3":
			k.createAccount()
		case "4":
			k.resetTransactions()
		case "0":
			return
		default:
			errorColor.Println("Unknown option.")
		}
	}
}

func (k *kiosk) listAccounts() {
	accounts, err := k.admin.ListAccounts()
	if err != nil {
		k.reportFailure(err)
		return
	}

	fmt.Printf("  %-6s %-22s %14s\n", "ID", "Card Number", "Balance")
	for _, acc := range accounts {
		fmt.Printf("  %-6d %-22s %14s\n", acc.ID, models.MaskCard(acc.CardNumber), models.FormatAmount(acc.Balance))
	}
}

func (k *kiosk) auditLog() {
	events, err := k.admin.RecentAuditEvents(k.cfg.History.AuditLimit)
	if err != nil {
		k.reportFailure(err)
		return
	}

	for _, ev := range events {
		acct := "-"
		if ev.AccountID != nil {
			acct = fmt.Sprintf("%d", *ev.AccountID)
		}
		fmt.Printf("  %s  acct=%-5s %-16s %12s  %s\n",
			ev.CreatedAt.Format("2006-01-02 15:04:05"),
			acct, ev.EventType, models.FormatAmount(ev.Amount), ev.Details)
	}
}

func (k *kiosk) createAccount() {
	card := k.prompt("Card number")
	pin := k.promptPIN("PIN")
	balanceText := k.prompt("Initial balance")

	balance, err := models.ParseAmount(balanceText)
	if err != nil {
		errorColor.Println("Invalid balance.")
		return
	}

	accountID, err := k.admin.CreateAccount(services.CreateAccountRequest{
		CardNumber:     card,
		PIN:            pin,
		InitialBalance: balance,
	})
	if err != nil {
		k.reportFailure(err)
		return
	}
	successColor.Printf("Account %d created.\n", accountID)
}

func (k *kiosk) resetTransactions() {
	errorColor.Println("This will DELETE ALL TRANSACTIONS. Accounts will remain.")
	if !strings.EqualFold(k.prompt("Type 'yes' to proceed"), "yes") {
		return
	}

	deleted, err := k.admin.ResetTransactions()
	if err != nil {
		k.reportFailure(err)
		return
	}
	successColor.Printf("%d transactions cleared.\n", deleted)
}

func (k *kiosk) printReceipt(r *models.Receipt) {
	fmt.Println()
	successColor.Println("----- RECEIPT -----")
	fmt.Printf("  %s\n", r.Type)
	if r.Recipient != "" {
		fmt.Printf("  Recipient:   %s\n", r.Recipient)
	}
	fmt.Printf("  Amount:      %s\n", models.FormatAmount(r.Amount))
	fmt.Printf("  Old balance: %s\n", models.FormatAmount(r.OldBalance))
	fmt.Printf("  New balance: %s\n", models.FormatAmount(r.NewBalance))
	fmt.Printf("  Reference:   %s\n", r.Reference)
	fmt.Printf("  %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	successColor.Println("-------------------")
}

// reportFailure maps typed failures to kiosk messages; anything else is
// a storage-level error that must not leak verbatim to the screen.
func (k *kiosk) reportFailure(err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		errorColor.Println("Invalid input. Please check the details and try again.")
	case errors.Is(err, services.ErrInsufficientFunds):
		errorColor.Println("Insufficient balance.")
	case errors.Is(err, services.ErrRecipientNotFound):
		errorColor.Println("Recipient account does not exist.")
	case errors.Is(err, services.ErrSelfTransfer):
		errorColor.Println("You cannot transfer to your own card.")
	case errors.Is(err, services.ErrDuplicateCard):
		errorColor.Println("Card number already exists.")
	case errors.Is(err, services.ErrDuplicateSubmission):
		errorColor.Println("This transfer was already processed.")
	case errors.Is(err, services.ErrAccountNotFound):
		errorColor.Println("Account not found.")
	default:
		log.Printf("Operation failed: %v", err)
		errorColor.Println("System error. Please try again later.")
	}
}

func (k *kiosk) prompt(label string) string {
	fmt.Printf("%s: ", label)
	line, err := k.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// promptPIN reads without echo when stdin is a terminal and falls back
// to a plain read otherwise (tests, piped input).
func (k *kiosk) promptPIN(label string) string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return k.prompt(label)
	}

	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func (k *kiosk) promptAmount() (int64, bool) {
	amount, err := models.ParseAmount(k.prompt("Amount"))
	if err != nil || amount <= 0 {
		errorColor.Println("Invalid amount.")
		return 0, false
	}
	return amount, true
}
