// pricectl is a CLI tool for exercising the pricing service.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	pricectl price -server URL -line P1:2 [-line P2:1:V1] [-fee 30]
//	pricectl offer -server URL -product P1
//	pricectl cart -server URL -cart ID -line P1:2 [-line ...]
//	pricectl order -server URL -cart ID [-key K]
//
// Examples:
//
//	pricectl price -line P1:3 -line P2:1:XL
//	pricectl cart -cart c1 -line P1:2 && pricectl order -cart c1 -q
//	pricectl price -line P1:1 -preview 2026-12-24T00:00:00Z
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-pricing/internal/clientinfo"
	"storefront-pricing/internal/model"
)

const version = "1.0.0"

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL string
	currency  string
	preview   string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "price":
		runPrice(args)
	case "offer":
		runOffer(args)
	case "cart":
		runCart(args)
	case "order":
		runOrder(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `pricectl - storefront pricing tool

Usage:
  pricectl <command> [options]

Commands:
  price   Price cart lines against the live offers
  offer   Show the best offer for a product
  cart    Replace the contents of a stored cart
  order   Place an order from a stored cart

Lines are PRODUCT:QTY or PRODUCT:QTY:VARIANT.

Examples:
  pricectl price -server http://localhost:8080 -line P1:3 -line P2:1:XL
  pricectl cart -cart c1 -line P1:2
  ID=$(pricectl order -cart c1 -q)

Run 'pricectl <command> -h' for command-specific options.
`)
}

// commonFlags registers the flags every command accepts.
func commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&serverURL, "server", "http://localhost:8080", "Pricing service base URL")
	fs.StringVar(&currency, "currency", "", "Currency suffix for amounts")
	fs.StringVar(&preview, "preview", "", "Price as of an RFC 3339 instant (admin preview)")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the key value")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

// lineFlags collects repeated -line flags.
type lineFlags []model.LineRequest

func (l *lineFlags) String() string {
	parts := make([]string, 0, len(*l))
	for _, line := range *l {
		parts = append(parts, fmt.Sprintf("%s:%d", line.ProductID, line.Quantity))
	}
	return strings.Join(parts, ",")
}

func (l *lineFlags) Set(v string) error {
	line, err := parseLine(v)
	if err != nil {
		return err
	}
	*l = append(*l, line)
	return nil
}

// parseLine parses PRODUCT:QTY[:VARIANT]. The quantity defaults to 1.
func parseLine(v string) (model.LineRequest, error) {
	parts := strings.Split(v, ":")
	if len(parts) > 3 || parts[0] == "" {
		return model.LineRequest{}, fmt.Errorf("invalid line %q, want PRODUCT:QTY[:VARIANT]", v)
	}
	line := model.LineRequest{ProductID: parts[0], Quantity: 1}
	if len(parts) > 1 {
		qty, err := strconv.Atoi(parts[1])
		if err != nil {
			return model.LineRequest{}, fmt.Errorf("invalid quantity in %q: %w", v, err)
		}
		line.Quantity = qty
	}
	if len(parts) == 3 {
		line.VariantID = parts[2]
	}
	return line, nil
}

// clientHeader builds the Storefront-Client header. A preview instant switches
// the client to the admin app.
func clientHeader(previewAt string) (string, error) {
	if previewAt == "" {
		return fmt.Sprintf(`app=pricectl, version="%s"`, version), nil
	}
	at, err := time.Parse(time.RFC3339, previewAt)
	if err != nil {
		return "", fmt.Errorf("invalid -preview: %w", err)
	}
	return fmt.Sprintf(`app=%s, version="%s", preview=%d`, clientinfo.AdminApp, version, at.Unix()), nil
}

// =============================================================================
// PRICE COMMAND
// =============================================================================

func runPrice(args []string) {
	fs := flag.NewFlagSet("price", flag.ExitOnError)
	commonFlags(fs)
	var lines lineFlags
	var fee string
	fs.Var(&lines, "line", "Cart line PRODUCT:QTY[:VARIANT] (repeatable, required)")
	fs.StringVar(&fee, "fee", "", "Delivery fee override, e.g. 30.00")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pricectl price -line P1:2 [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if len(lines) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	req := model.PriceCartRequest{Lines: lines}
	if fee != "" {
		amount, err := model.ParseAmount(fee)
		if err != nil {
			fatal("Invalid -fee: %v", err)
		}
		req.DeliveryFee = &amount
	}

	var calc model.Calculation
	if err := doRequest("POST", "/cart/price", "", req, &calc); err != nil {
		fatal("Failed to price cart: %v", err)
	}

	if quiet {
		fmt.Println(model.FormatAmount(calc.Total))
		return
	}
	printCalculation(calc)
}

// =============================================================================
// OFFER COMMAND
// =============================================================================

func runOffer(args []string) {
	fs := flag.NewFlagSet("offer", flag.ExitOnError)
	commonFlags(fs)
	var productID string
	fs.StringVar(&productID, "product", "", "Product ID (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pricectl offer -product ID [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	var offer model.Offer
	if err := doRequest("GET", "/products/"+url.PathEscape(productID)+"/offer", "", nil, &offer); err != nil {
		fatal("Failed to get offer: %v", err)
	}

	if quiet {
		fmt.Println(offer.ID)
		return
	}
	printSuccess("Best offer for %s", productID)
	fmt.Printf("  %s%s%s (%s, priority %d)\n", colorCyan, offer.Title, colorReset, offer.Type, offer.Priority)
	if !offer.AutoApply {
		printInfo("not applied automatically")
	}
	if offer.EndsAt != nil {
		printInfo("ends %s", offer.EndsAt.Format(time.RFC3339))
	}
}

// =============================================================================
// CART COMMAND
// =============================================================================

func runCart(args []string) {
	fs := flag.NewFlagSet("cart", flag.ExitOnError)
	commonFlags(fs)
	var cartID string
	var lines lineFlags
	fs.StringVar(&cartID, "cart", "", "Cart ID (required)")
	fs.Var(&lines, "line", "Cart line PRODUCT:QTY[:VARIANT] (repeatable; QTY 0 removes)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pricectl cart -cart ID -line P1:2 [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if cartID == "" {
		fs.Usage()
		os.Exit(1)
	}

	req := model.CartRequest{Lines: lines}
	if req.Lines == nil {
		req.Lines = []model.LineRequest{}
	}

	var cart model.Cart
	if err := doRequest("PUT", "/carts/"+url.PathEscape(cartID), "", req, &cart); err != nil {
		fatal("Failed to replace cart: %v", err)
	}

	if quiet {
		fmt.Println(cart.ID)
		return
	}
	printSuccess("Cart %s has %d line(s)", cart.ID, len(cart.Lines))
	for _, l := range cart.Lines {
		fmt.Printf("  %d x %s%s\n", l.Quantity, l.ProductID, variantSuffix(l.VariantID))
	}
}

// =============================================================================
// ORDER COMMAND
// =============================================================================

func runOrder(args []string) {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	commonFlags(fs)
	var cartID, key string
	fs.StringVar(&cartID, "cart", "", "Cart ID (required)")
	fs.StringVar(&key, "key", "", "Idempotency key (random if not set)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pricectl order -cart ID [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if cartID == "" {
		fs.Usage()
		os.Exit(1)
	}
	if key == "" {
		key = uuid.NewString()
	}

	var resp model.PlaceOrderResponse
	if err := doRequest("POST", "/carts/"+url.PathEscape(cartID)+"/orders", key, nil, &resp); err != nil {
		fatal("Failed to place order: %v", err)
	}

	if quiet {
		fmt.Println(resp.Order.ID)
		return
	}
	if resp.Replayed {
		printInfo("Idempotency key %s matched an existing order", key)
	}
	printSuccess("Order placed")
	fmt.Printf("  ID: %s%s%s\n\n", colorCyan, resp.Order.ID, colorReset)
	fmt.Println(resp.Summary)
}

// =============================================================================
// HTTP
// =============================================================================

func doRequest(method, path, idempotencyKey string, body, out interface{}) error {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, serverURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	header, err := clientHeader(preview)
	if err != nil {
		return err
	}
	req.Header.Set(clientinfo.HeaderName, header)

	if verbose {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if verbose {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error model.APIError `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Code != "" {
			return fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printCalculation(calc model.Calculation) {
	fmt.Printf("%sSubtotal:%s  %s\n", colorBold, colorReset, model.FormatPrice(calc.Subtotal, currency))
	for _, a := range calc.AppliedOffers {
		fmt.Printf("  %s- %s%s  -%s\n", colorGreen, a.Message, colorReset, model.FormatPrice(a.Discount, currency))
		for _, f := range a.FreeItems {
			fmt.Printf("    🎁 %d x %s%s free\n", f.Quantity, f.ProductID, variantSuffix(f.VariantID))
		}
	}
	if calc.FreeShipping {
		fmt.Printf("%sDelivery:%s  Free 🚚\n", colorBold, colorReset)
	} else {
		fmt.Printf("%sDelivery:%s  %s\n", colorBold, colorReset, model.FormatPrice(calc.DeliveryFee, currency))
	}
	if hint := calc.FreeShippingHint; hint != nil {
		printInfo("%s", hint.Message)
	}
	fmt.Printf("%sTotal:%s     %s%s%s\n", colorBold, colorReset, colorCyan, model.FormatPrice(calc.Total, currency), colorReset)
	if calc.Savings > 0 {
		printSuccess("You saved %s", model.FormatPrice(calc.Savings, currency))
	}
}

func variantSuffix(variantID string) string {
	if variantID == "" {
		return ""
	}
	return " (" + variantID + ")"
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}
	fmt.Println(pretty.String())
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
