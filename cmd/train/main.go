// helr-train: encrypted logistic regression trainer
//
// Usage:
//
//	helr-train --data=train.csv --iters=10 --lr=0.1 --degree=3 --strategy=horner
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"helr/advisor"
	"helr/core/ckkswrapper"
	"helr/dataset"
	"helr/keyholder"
	"helr/lr"
	"helr/poly"
	"helr/split"
	"helr/utils"
)

var (
	dataFile     = flag.String("data", "", "Training CSV (header row, label in last column); synthetic data when empty")
	samples      = flag.Int("samples", 64, "Number of synthetic samples")
	iterations   = flag.Int("iters", 10, "Number of gradient descent iterations")
	learningRate = flag.Float64("lr", 0.1, "Learning rate")
	degree       = flag.Int("degree", 3, "Sigmoid surrogate degree: 3, 5 or 7")
	strategyName = flag.String("strategy", "horner", "Polynomial strategy: horner, tree")
	logN         = flag.Int("logN", ckkswrapper.DefaultOptions().LogN, "Ring dimension log2")
	logQ         = flag.String("logQ", utils.FormatModulusChain(ckkswrapper.DefaultOptions().LogQ), "Ciphertext modulus chain in bits")
	logP         = flag.String("logP", utils.FormatModulusChain(ckkswrapper.DefaultOptions().LogP), "Key switching modulus chain in bits")
	logScale     = flag.Int("scale", ckkswrapper.DefaultOptions().LogDefaultScale, "Default scale log2")
	workers      = flag.Int("workers", 1, "Goroutines for per-row dot products")
	reportEvery  = flag.Int("report", 5, "Decrypt a weight snapshot every N iterations (0 disables)")
	seed         = flag.Uint64("seed", 42, "Random seed for data and weight initialisation")
	keyMode      = flag.String("keyholder", "local", "Key holder transport: local, gob, http")
	selfTest     = flag.Bool("selftest", false, "Check the encrypted sigmoid surrogate and exit")
	verbose      = flag.Bool("verbose", true, "Verbose output")
	outputFile   = flag.String("output", "", "Output weights file (JSON)")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	strategy, err := poly.ParseStrategy(*strategyName)
	if err != nil {
		fatal(err)
	}
	cfg := lr.Config{
		LearningRate: *learningRate,
		Iterations:   *iterations,
		Degree:       *degree,
		Strategy:     strategy,
		ReportEvery:  *reportEvery,
		Workers:      *workers,
		Seed:         *seed,
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	opts, err := options()
	if err != nil {
		fatal(err)
	}

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║              Encrypted Logistic Regression Trainer           ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Data:          %s\n", dataName())
	fmt.Printf("  Iterations:    %d\n", cfg.Iterations)
	fmt.Printf("  Learning Rate: %.4f\n", cfg.LearningRate)
	fmt.Printf("  Sigmoid:       degree %d, %s\n", cfg.Degree, cfg.Strategy)
	fmt.Printf("  LogN:          %d\n", opts.LogN)
	fmt.Printf("  LogQ:          %s\n", utils.FormatModulusChain(opts.LogQ))
	fmt.Printf("  Key holder:    %s\n", *keyMode)
	fmt.Println()

	stats := &utils.TimingStats{}

	fmt.Println("Initializing HE context...")
	start := time.Now()
	heCtx, err := ckkswrapper.NewHeContextWithOptions(opts)
	if err != nil {
		fatal(err)
	}
	stats.HEInitTime = time.Since(start)
	fmt.Printf("HE initialization: %.2fs (max level %d, %d slots)\n",
		stats.HEInitTime.Seconds(), heCtx.Params.MaxLevel(), heCtx.Params.MaxSlots())

	if *selfTest {
		if err := runSelfTest(heCtx, cfg); err != nil {
			fatal(err)
		}
		return
	}

	start = time.Now()
	d, err := loadData()
	if err != nil {
		fatal(err)
	}
	stats.DataLoadingTime = time.Since(start)
	rows, features := d.Dims()
	fmt.Printf("Loaded %d observations of %d features\n", rows, features)

	plan, err := advisor.NewPlan(rows, features, cfg.Degree, cfg.Strategy, heCtx.Params.MaxLevel(), heCtx.Params.MaxSlots())
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Depth per iteration: %d of %d levels, %d rotation keys, %d rotations per iteration\n",
		plan.Depth, plan.MaxLevel, len(plan.Rotations), plan.RotationCount)

	start = time.Now()
	kit := heCtx.GenServerKit(plan.Rotations)
	stats.HEInitTime += time.Since(start)

	keys, closeKeys, err := connectKeyHolder(heCtx)
	if err != nil {
		fatal(err)
	}
	defer closeKeys()

	trainer, err := lr.NewTrainer(cfg, kit, keys)
	if err != nil {
		fatal(err)
	}
	if err := trainer.Load(d); err != nil {
		fatal(err)
	}

	fmt.Println("\nStarting training...")
	if _, err := trainer.Run(); err != nil {
		fatal(err)
	}

	ts := trainer.Stats()
	stats.EncryptionTime = ts.EncryptionTime
	stats.PredictTime = ts.PredictTime
	stats.LossTime = ts.LossTime
	stats.GradientTime = ts.GradientTime
	stats.UpdateTime = ts.UpdateTime
	stats.RefreshTime = ts.RefreshTime
	stats.ReportTime = ts.ReportTime
	stats.TotalTime = stats.HEInitTime + stats.DataLoadingTime + ts.TotalTime + ts.EncryptionTime
	fmt.Printf("\nTraining complete! Total time: %.2fs\n", stats.TotalTime.Seconds())

	weights, err := trainer.DecryptWeights()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Weights: %.5f\n", weights)
	fmt.Printf("Cost:    %.6f\n", lr.Cost(d, weights))

	if err := compareWithPlaintext(d, cfg, weights); err != nil {
		fatal(err)
	}
	utils.PrintTimingStats(stats, cfg.Iterations)
	kit.Counters().PrintCounters("training")

	if *outputFile != "" {
		fmt.Printf("\nSaving weights to %s...\n", *outputFile)
		if err := utils.SaveWeights(*outputFile, &utils.ModelWeights{
			Version:      "1.0",
			Degree:       cfg.Degree,
			Strategy:     cfg.Strategy.String(),
			Iterations:   cfg.Iterations,
			LearningRate: cfg.LearningRate,
			Weights:      weights,
		}); err != nil {
			fatal(err)
		}
		fmt.Println("Done!")
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func dataName() string {
	if *dataFile == "" {
		return fmt.Sprintf("synthetic (%d samples)", *samples)
	}
	return *dataFile
}

func options() (ckkswrapper.Options, error) {
	q, err := utils.ParseModulusChain(*logQ)
	if err != nil {
		return ckkswrapper.Options{}, err
	}
	p, err := utils.ParseModulusChain(*logP)
	if err != nil {
		return ckkswrapper.Options{}, err
	}
	return ckkswrapper.Options{LogN: *logN, LogQ: q, LogP: p, LogDefaultScale: *logScale}, nil
}

// loadData reads the CSV or draws a separable two-feature set, then
// standardises the features.
func loadData() (*dataset.Dataset, error) {
	var (
		d   *dataset.Dataset
		err error
	)
	if *dataFile != "" {
		d, err = dataset.LoadCSV(*dataFile)
	} else {
		d, err = dataset.Synthetic(*samples, []float64{1.5, -1}, 0.1, *seed)
	}
	if err != nil {
		return nil, err
	}
	dataset.Standardize(d.X)
	return d, nil
}

// connectKeyHolder returns the key holder in the requested transport. The
// remote variants run in this process on an in-memory pipe or a loopback
// listener.
func connectKeyHolder(h *ckkswrapper.HeContext) (ckkswrapper.KeyHolder, func(), error) {
	switch *keyMode {
	case "local":
		return h, func() {}, nil
	case "gob":
		server, client := net.Pipe()
		done := make(chan error, 1)
		go func() {
			done <- split.Serve(split.NewProtocol(server, server), h, h.Params)
		}()
		remote := split.NewRemoteKeyHolder(split.NewProtocol(client, client), h.Params)
		return remote, func() {
			remote.Close()
			if err := <-done; err != nil {
				fmt.Fprintf(os.Stderr, "key holder: %v\n", err)
			}
			client.Close()
			server.Close()
		}, nil
	case "http":
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, nil, err
		}
		srv := &http.Server{Handler: keyholder.NewRouter(h, h.Params)}
		go srv.Serve(ln)
		client := keyholder.NewClient("http://"+ln.Addr().String(), h.Params, nil)
		if _, err := client.Health(); err != nil {
			srv.Close()
			return nil, nil, err
		}
		return client, func() { srv.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown key holder transport %q", *keyMode)
}

func compareWithPlaintext(d *dataset.Dataset, cfg lr.Config, got []float64) error {
	_, features := d.Dims()
	w0, err := cfg.InitialWeights(features)
	if err != nil {
		return err
	}
	act, err := lr.Surrogate(cfg)
	if err != nil {
		return err
	}
	hist, err := lr.TrainPlain(d, w0, cfg, act)
	if err != nil {
		return err
	}
	want := hist[len(hist)-1]
	ps, err := utils.Precision(want, got)
	if err != nil {
		return err
	}
	fmt.Printf("Plaintext reference: %.5f\n", want)
	utils.PrintPrecision("Encrypted vs plaintext weights", ps)
	return nil
}

// runSelfTest evaluates the raw surrogate on encrypted inputs x/8 and
// separates the approximation error from the scheme error.
func runSelfTest(h *ckkswrapper.HeContext, cfg lr.Config) error {
	p, err := poly.SigmoidPreset(cfg.Degree)
	if err != nil {
		return err
	}
	kit := h.GenServerKit(nil)

	xs := []float64{-6, -3, -0.8, 0, 0.8, 3, 6}
	scaled := make([]float64, len(xs))
	want := make([]float64, len(xs))
	for i, x := range xs {
		scaled[i] = x * poly.SigmoidInputScale
		want[i] = p.Eval(scaled[i])
	}
	ct, err := h.EncryptValues(scaled)
	if err != nil {
		return err
	}
	out, err := poly.NewEvaluator(kit, cfg.Strategy).Evaluate(ct, p)
	if err != nil {
		return err
	}
	got, err := h.Decrypt(out)
	if err != nil {
		return err
	}

	fmt.Printf("Sigmoid self-test (degree %d, %s, level %d -> %d)\n", cfg.Degree, cfg.Strategy, ct.Level(), out.Level())
	for i, x := range xs {
		fmt.Printf("  x=%5.2f  sigmoid %.5f  surrogate %.5f  decrypted %.5f  approx err %.2e  scheme err %.2e\n",
			x, poly.Sigmoid(x), want[i], got[i], poly.Sigmoid(x)-want[i], got[i]-want[i])
	}
	ps, err := utils.Precision(want, got)
	if err != nil {
		return err
	}
	utils.PrintPrecision("Scheme error", ps)
	return nil
}
