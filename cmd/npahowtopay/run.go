package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/influxdb"
	"github.com/bher20/npahowtopay/internal/model"
	"github.com/bher20/npahowtopay/internal/params"
	"github.com/bher20/npahowtopay/internal/report"
)

type runFlags struct {
	paramsPath string
	tsPath     string
	webPath    string
	run        string
	dataDir    string
	start      int
	end        int
	out        string
	parallel   bool
	influxURL  string
	store      bool
	utilities  []string
	costTypes  []string
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every scenario once and write the result tables",
		Long: `Run BAU, taxpayer and the ratepayer-funded scenarios over one parameter set.

Inputs come either from a named run under --data-dir (params/<run>.yaml with
timeseries/<run>.yaml or web/<run>.yaml) or from explicit files. Without --out
the delta table is written to stdout as CSV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalysis(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.paramsPath, "params", "", "scalar input parameters YAML")
	fl.StringVar(&f.tsPath, "timeseries", "", "time series YAML")
	fl.StringVar(&f.webPath, "web-params", "", "web parameters YAML, used when --timeseries is not given")
	fl.StringVar(&f.run, "run", "", "named run under --data-dir")
	fl.StringVar(&f.dataDir, "data-dir", "", "data directory (default $NPAHOWTOPAY_DATA_DIR)")
	fl.IntVar(&f.start, "start", 0, "first simulated year, must equal shared.start_year (default shared.start_year)")
	fl.IntVar(&f.end, "end", 0, "year after the last simulated year (default start+25)")
	fl.StringVar(&f.out, "out", "", "directory for results/<scenario>.csv and deltas.csv")
	fl.BoolVar(&f.parallel, "parallel", false, "run scenarios concurrently")
	fl.StringVar(&f.influxURL, "influx-url", "", "export results to this InfluxDB (default $NPAHOWTOPAY_INFLUX_URL)")
	fl.BoolVar(&f.store, "store", false, "persist the analysis in the configured database")
	fl.StringSliceVar(&f.utilities, "utility", nil, "ratepayer utilities to simulate (gas, electric)")
	fl.StringSliceVar(&f.costTypes, "cost-type", nil, "cost treatments to simulate (capex, opex)")
	return cmd
}

func (f *runFlags) request(dataDir string) (analysis.Request, error) {
	if f.run != "" {
		return analysis.LoadRequest(dataDir, f.run, f.start, f.end)
	}
	if f.paramsPath == "" {
		return analysis.Request{}, errors.New("either --run or --params is required")
	}
	in, err := params.LoadInputParams(f.paramsPath)
	if err != nil {
		return analysis.Request{}, err
	}
	req := analysis.Request{StartYear: f.start, EndYear: f.end, Input: in}
	switch {
	case f.tsPath != "":
		doc, err := params.LoadTimeSeriesDoc(f.tsPath)
		if err != nil {
			return analysis.Request{}, err
		}
		req.TimeSeries = &doc
	case f.webPath != "":
		web, err := params.LoadWebParams(f.webPath)
		if err != nil {
			return analysis.Request{}, err
		}
		req.WebParams = &web
	default:
		return analysis.Request{}, errors.New("--timeseries or --web-params is required with --params")
	}
	return req, nil
}

func (f *runFlags) serviceConfig() (analysis.Config, error) {
	cfg := analysis.Config{Parallel: f.parallel}
	for _, u := range f.utilities {
		v, err := params.ParseUtility(u)
		if err != nil {
			return cfg, err
		}
		cfg.Utilities = append(cfg.Utilities, v)
	}
	for _, c := range f.costTypes {
		v, err := params.ParseCostType(c)
		if err != nil {
			return cfg, err
		}
		cfg.CostTypes = append(cfg.CostTypes, v)
	}
	return cfg, nil
}

func (a *app) runAnalysis(cmd *cobra.Command, f *runFlags) error {
	ctx := cmd.Context()
	dataDir := f.dataDir
	if dataDir == "" {
		dataDir = a.cfg.DataDir
	}
	req, err := f.request(dataDir)
	if err != nil {
		return err
	}
	svcCfg, err := f.serviceConfig()
	if err != nil {
		return err
	}

	var svc *analysis.Service
	if f.store {
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		svc = analysis.NewServiceWithStorage(svcCfg, st)
	} else {
		svc = analysis.NewService(svcCfg)
	}

	influx := a.cfg.Influx
	if f.influxURL != "" {
		influx.URL = f.influxURL
	}
	if influx.Enabled() {
		exp, err := influxdb.NewExporter(ctx, influx, nil)
		if err != nil {
			return err
		}
		defer exp.Close()
		svc.AddExporter(exp)
	}

	res, err := svc.Analyze(ctx, req, "cli")
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return writeResult(cmd, res, f.out)
}

func writeResult(cmd *cobra.Command, res *analysis.Result, out string) error {
	if out == "" {
		return report.WriteDeltas(cmd.OutOrStdout(), res.Deltas, report.CompareColumns())
	}
	if err := report.WriteDir(out, res.Results, res.Deltas); err != nil {
		return err
	}
	log.Printf("run: analysis %s years [%d,%d) wrote %s to %s",
		res.ID, res.StartYear, res.EndYear, strings.Join(model.ScenarioNames(res.Results), ","), out)
	return nil
}
