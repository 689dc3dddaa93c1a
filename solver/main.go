/* Copyright 2022, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"

	"git.solver4all.com/azaryc2s/mapf"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

var (
	pInst mapf.MAPFInstance
	sol   *mapf.MAPFSolution

	mode          *string
	strat         *string
	inputF        *string
	outputF       *string
	relax         *bool
	noSwap        *bool
	bigM          *float64
	timeout       *float64
	horizon       *int
	vertexBinding *bool
	vertexVisit   *string
	heuristic     *bool
	epsilon       *float64
	logLvl        *int
)

func main() {
	mode = flag.String("mode", mapf.MODE_DYNAMIC, "Solver flavor. Possible: {CONT,DYN,DISC}. Default DYN.")
	strat = flag.String("strat", mapf.STRAT_LOOP, "Cut strategy for DYN. LOOP (default) or CB (lazy callback)")
	inputF = flag.String("input", "input.json", "Path to the input instance")
	outputF = flag.String("output", "", "Path to the output file. By default the input file will be overwritten adding the solution")
	relax = flag.Bool("relax", false, "Solve the LP relaxation instead of the MILP")
	noSwap = flag.Bool("noSwap", false, "Disable the swap-conflict constraints")
	bigM = flag.Float64("bigM", 0, "Time horizon (big-M). 0 derives it from the instance")
	timeout = flag.Float64("timeout", -1, "Solver time limit in seconds. -1 is unlimited")
	horizon = flag.Int("T", 0, "Step horizon for DISC. 0 uses the edge count")
	vertexBinding = flag.Bool("vertexBinding", false, "Use the strict vertex-binding coupling in DISC")
	vertexVisit = flag.String("vertexVisit", mapf.VERTEX_VISIT_AUTO, "Vertex-payment policy for DISC. {AUTO,YES,NO}")
	heuristic = flag.Bool("heuristic", false, "Use one-sided heuristic cuts in DYN (faster, possibly suboptimal)")
	epsilon = flag.Float64("epsilon", 0, "Safety gap for DYN ordering cuts. 0 derives it from the wait times")
	logLvl = flag.Int("log", 2, "Level of the logging output. Higher value is more verbose. Range 1-4")

	flag.Parse()
	mapf.InitLoggers(*logLvl)

	instStr, err := ioutil.ReadFile(*inputF)
	if err != nil {
		mapf.Log(1, "At %s: %s\n", *inputF, err.Error())
		return
	}
	err = json.Unmarshal(instStr, &pInst)
	if err != nil {
		mapf.Log(1, "At %s: %s\n", *inputF, err.Error())
		return
	}

	cfg, err := pInst.ToConfig()
	if err != nil {
		mapf.Log(1, "At %s: %s\n", *inputF, err.Error())
		return
	}
	cfg.Integer = !*relax
	cfg.SwapConstraint = !*noSwap
	cfg.BigM = *bigM
	cfg.Timeout = *timeout
	cfg.TimeDuration = *horizon
	cfg.VertexBinding = *vertexBinding
	cfg.VertexVisit = *vertexVisit
	cfg.Strategy = *strat
	cfg.HeuristicConflict = *heuristic
	cfg.Epsilon = *epsilon

	switch *mode {
	case mapf.MODE_CONTINUOUS:
		sol, err = mapf.SolveContinuousTime(cfg)
	case mapf.MODE_DYNAMIC:
		sol, err = mapf.SolveDynamicConflict(cfg)
	case mapf.MODE_DISCRETE:
		sol, err = mapf.SolveDiscreteTime(cfg)
	default:
		mapf.Log(1, "Unsupported mode: %s\n", *mode)
		return
	}
	if err != nil {
		mapf.Log(1, "At %s: %s\n", *inputF, err.Error())
		return
	}

	hostStat, _ := host.Info()
	cpuStat, _ := cpu.Info()
	vmStat, _ := mem.VirtualMemory()
	sol.System = mapf.SysInfo{hostStat.Platform, cpuStat[0].ModelName, fmt.Sprintf("%d GB", (vmStat.Total / 1024 / 1024 / 1024))}
	sol.Comment = fmt.Sprintf("Solver-Settings: Mode=%s, Strat=%s, Integer=%v, Swap=%v, Heuristic=%v", *mode, *strat, cfg.Integer, cfg.SwapConstraint, *heuristic)

	if cfg.Integer {
		solValid, validComment := mapf.CheckSolutionValidity(cfg, sol, *mode == mapf.MODE_DISCRETE)
		if !solValid {
			mapf.Log(1, validComment)
		} else {
			mapf.Log(1, "The computed solution is valid! ")
		}
	}
	mapf.Log(2, "Found a MAPF-Solution with obj-Value of %f\n", sol.Obj)

	pInst.Solution = sol
	writeSolution()
}

func writeSolution() {
	jsonInst, err := json.MarshalIndent(pInst, "", "\t")
	if err != nil {
		mapf.Log(1, "At %s: %s\n", *inputF, err.Error())
		return
	}
	jsonInst = []byte(mapf.SanitizeJsonArrayLineBreaks(string(jsonInst)))
	var fileName string
	if *outputF == "" {
		fileName = *inputF //overwrite the input file
	} else {
		fileName = *outputF
	}
	err = ioutil.WriteFile(fileName, jsonInst, 0644)
	if err != nil {
		mapf.Log(1, "At %s: %s\n", *inputF, err.Error())
		return
	}
}
