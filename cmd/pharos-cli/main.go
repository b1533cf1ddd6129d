package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"pharos/crypto"
)

var rpcEndpoint = defaultRPCEndpoint()
var rpcAuthToken = os.Getenv("PHAROS_RPC_TOKEN")

func main() {
	args := os.Args[1:]
	var err error
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	switch command {
	case "generate-key":
		generateKey()
	case "balance":
		requireArgs(args, 2, "Please provide an address.")
		call("pharos_getBalance", map[string]string{"address": args[1]}, false)
	case "delegate":
		requireArgs(args, 3, "Please provide a delegator address and an amount.")
		call("restaking_delegate", map[string]string{"delegator": args[1], "amount": args[2]}, true)
	case "undelegate":
		requireArgs(args, 3, "Please provide a delegator address and an amount.")
		call("restaking_undelegate", map[string]string{"delegator": args[1], "amount": args[2]}, true)
	case "total-delegated":
		call("restaking_totalDelegated", map[string]string{}, false)
	case "delegation":
		requireArgs(args, 2, "Please provide a delegator address.")
		call("restaking_delegationOf", map[string]string{"delegator": args[1]}, false)
	case "delegators":
		call("restaking_delegators", map[string]string{}, false)
	case "borrow":
		requireArgs(args, 3, "Please provide the operator address and an amount.")
		call("loan_create", map[string]string{"caller": args[1], "amount": args[2]}, true)
	case "repay":
		requireArgs(args, 2, "Please provide the operator address.")
		call("loan_repay", map[string]string{"caller": args[1]}, true)
	case "slash":
		requireArgs(args, 2, "Please provide the owner address.")
		call("loan_slash", map[string]string{"caller": args[1]}, true)
	case "loan":
		call("loan_get", map[string]string{}, false)
	case "loan-params":
		call("loan_params", map[string]string{}, false)
	case "repayment":
		call("loan_repayment", map[string]string{}, false)
	case "due-amount":
		call("loan_dueAmount", map[string]string{}, false)
	case "set-base-rate":
		requireArgs(args, 3, "Please provide the owner address and the rate in bps.")
		call("loan_setBaseRate", map[string]interface{}{"caller": args[1], "bps": mustUint(args[2])}, true)
	case "set-ltv":
		requireArgs(args, 3, "Please provide the owner address and the ratio in percent.")
		call("loan_setLTVRatio", map[string]interface{}{"caller": args[1], "percent": mustUint(args[2])}, true)
	case "operator":
		call("operator_info", map[string]string{}, false)
	case "operator-set-active":
		requireArgs(args, 3, "Please provide the owner address and true or false.")
		call("operator_setActive", map[string]interface{}{"caller": args[1], "active": args[2] == "true"}, true)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: pharos-cli [--rpc <url>] <command> [args]

Key management:
  generate-key                           Generate a new keypair

Queries:
  balance <address>                      Token balances for an address
  total-delegated                        Aggregate delegated collateral
  delegation <address>                   Delegation recorded for an address
  delegators                             List delegator addresses
  loan                                   Current loan record
  loan-params                            Origination parameters in force
  repayment                              Flat settlement owed
  due-amount                             Interest-bearing amount owed now
  operator                               Bonded operator directory entry

Mutations (require PHAROS_RPC_TOKEN):
  delegate <address> <amount>            Lock collateral in the ledger
  undelegate <address> <amount>          Release delegated collateral
  borrow <operator> <amount>             Open a loan
  repay <operator>                       Settle the active loan
  slash <owner>                          Seize all collateral and close the loan
  set-base-rate <owner> <bps>            Retune the base interest rate
  set-ltv <owner> <percent>              Retune the loan-to-value cap
  operator-set-active <owner> <bool>     Toggle the operator's active flag`)
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--rpc requires a URL")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out, nil
}

func requireArgs(args []string, n int, message string) {
	if len(args) < n {
		fmt.Println("Error: " + message)
		printUsage()
		os.Exit(1)
	}
}

func mustUint(raw string) uint64 {
	var v uint64
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		fmt.Printf("Error: invalid number %q\n", raw)
		os.Exit(1)
	}
	return v
}

func generateKey() {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Printf("Error generating key: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Address:     %s\n", key.PubKey().Address().String())
	fmt.Printf("Private key: %s\n", hex.EncodeToString(key.Bytes()))
}

func call(method string, params interface{}, requireAuth bool) {
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []interface{}{params},
	})
	if err != nil {
		fmt.Printf("Error encoding request: %v\n", err)
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodPost, rpcEndpoint+"/rpc", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if requireAuth {
		if rpcAuthToken == "" {
			fmt.Println("Error: PHAROS_RPC_TOKEN is required for this command.")
			os.Exit(1)
		}
		req.Header.Set("Authorization", "Bearer "+rpcAuthToken)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error calling %s: %v\n", method, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Error reading response: %v\n", err)
		os.Exit(1)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int         `json:"code"`
			Message string      `json:"message"`
			Data    interface{} `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		fmt.Printf("Unexpected response: %s\n", string(body))
		os.Exit(1)
	}
	if envelope.Error != nil {
		fmt.Printf("RPC error %d: %s\n", envelope.Error.Code, envelope.Error.Message)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, envelope.Result, "", "  "); err != nil {
		fmt.Println(string(envelope.Result))
		return
	}
	fmt.Println(pretty.String())
}
