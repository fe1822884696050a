package discovery

import "testing"

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func TestParse_RaydiumInit(t *testing.T) {
	parser := NewPoolInitParser()

	event := LogEvent{
		Signature: "sig-ray",
		Slot:      100,
		Logs: []string{
			"Program " + RaydiumAMMV4 + " invoke [1]",
			"Program log: initialize2: InitializeInstruction2 { nonce: 254, open_time: 0 }",
			"Program " + RaydiumAMMV4 + " success",
		},
	}

	inits := parser.Parse(event)
	if len(inits) != 1 {
		t.Fatalf("expected 1 init, got %v", inits)
	}
	if inits[0].Program != RaydiumAMMV4 || inits[0].Signature != "sig-ray" || inits[0].Slot != 100 {
		t.Errorf("unexpected init: %+v", inits[0])
	}
	// Raydium logs carry no mint.
	if inits[0].Mint != "" {
		t.Errorf("expected empty mint, got %s", inits[0].Mint)
	}
}

func TestParse_PumpFunCreate(t *testing.T) {
	parser := NewPoolInitParser()

	event := LogEvent{
		Signature: "sig-pump",
		Slot:      200,
		Logs: []string{
			"Program " + PumpFun + " invoke [1]",
			"Program log: Instruction: Create",
			"Program log: mint=" + testMint,
			"Program " + PumpFun + " success",
		},
	}

	inits := parser.Parse(event)
	if len(inits) != 1 {
		t.Fatalf("expected 1 init, got %v", inits)
	}
	if inits[0].Program != PumpFun || inits[0].Mint != testMint {
		t.Errorf("unexpected init: %+v", inits[0])
	}
}

func TestParse_IgnoresSwapsAndOtherPrograms(t *testing.T) {
	parser := NewPoolInitParser()

	events := []LogEvent{
		{
			Signature: "swap",
			Logs: []string{
				"Program " + RaydiumAMMV4 + " invoke [1]",
				"Program log: ray_log: A8Z1cGxhY2Vob2xkZXI=",
				"Program " + RaydiumAMMV4 + " success",
			},
		},
		{
			Signature: "pump buy",
			Logs: []string{
				"Program " + PumpFun + " invoke [1]",
				"Program log: Instruction: Buy",
				"Program log: mint=" + testMint,
				"Program " + PumpFun + " success",
			},
		},
		{
			Signature: "unrelated initialize",
			Logs: []string{
				"Program 11111111111111111111111111111111 invoke [1]",
				"Program log: initialize2: InitializeInstruction2",
			},
		},
	}

	for _, event := range events {
		if inits := parser.Parse(event); len(inits) != 0 {
			t.Errorf("%s: expected no inits, got %v", event.Signature, inits)
		}
	}
}

func TestParse_SkipsFailedTransactions(t *testing.T) {
	parser := NewPoolInitParser()

	event := LogEvent{
		Signature: "failed",
		Failed:    true,
		Logs: []string{
			"Program " + PumpFun + " invoke [1]",
			"Program log: Instruction: Create",
			"Program log: mint=" + testMint,
		},
	}

	if inits := parser.Parse(event); len(inits) != 0 {
		t.Errorf("expected failed tx to be skipped, got %v", inits)
	}
}

func TestParse_CreateWithoutMintDropped(t *testing.T) {
	parser := NewPoolInitParser()

	event := LogEvent{
		Signature: "no mint",
		Logs: []string{
			"Program " + PumpFun + " invoke [1]",
			"Program log: Instruction: Create",
			"Program " + PumpFun + " success",
		},
	}

	if inits := parser.Parse(event); len(inits) != 0 {
		t.Errorf("expected no init without a mint, got %v", inits)
	}
}
