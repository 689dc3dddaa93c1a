package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"strings"

	"git.solver4all.com/azaryc2s/mapf"
)

var (
	families mapf.ArrayStringFlags
	agents   mapf.ArrayIntFlags

	output *string
	shift  *int
	rungs  *int
	logLvl *int
)

func main() {
	flag.Var(&families, "f", "List of instance families. (LINES|STAR|GRID|WHEEL|LADDER|MERGE)")
	flag.Var(&agents, "a", "List of agent counts (LINES, STAR, WHEEL)")
	output = flag.String("outputDir", ".", "Output directory")
	shift = flag.Int("shift", 1, "Target shift along the cycle for WHEEL")
	rungs = flag.Int("rungs", 4, "Number of rungs for LADDER")
	logLvl = flag.Int("log", 2, "Level of the logging output. Higher value is more verbose. Range 1-4")

	flag.Parse()
	mapf.InitLoggers(*logLvl)

	if len(families) == 0 {
		families = mapf.ArrayStringFlags{"LINES", "STAR", "GRID", "WHEEL", "LADDER", "MERGE"}
	}
	if len(agents) == 0 {
		agents = mapf.ArrayIntFlags{4}
	}

	var instances []*mapf.MAPFInstance
	for _, fam := range families {
		switch strings.ToUpper(fam) {
		case "LINES":
			for _, a := range agents {
				instances = append(instances, mapf.ParallelLinesInstance(a))
			}
		case "STAR":
			for _, a := range agents {
				instances = append(instances, mapf.StarInstance(a))
			}
		case "GRID":
			instances = append(instances, mapf.GridCrossInstance())
		case "WHEEL":
			for _, a := range agents {
				instances = append(instances, mapf.WheelInstance(a, *shift))
			}
		case "LADDER":
			instances = append(instances, mapf.LadderInstance(*rungs))
		case "MERGE":
			instances = append(instances, mapf.TwoBranchMergeInstance())
		default:
			mapf.Log(1, "Unknown instance family: %s", fam)
			return
		}
	}

	for _, inst := range instances {
		inst.Comment = "Generated MAPF instance"
		jsonInst, err := json.MarshalIndent(inst, "", "\t")
		if err != nil {
			mapf.Log(1, "Couldn't marshal %s: %s\n", inst.Name, err.Error())
			return
		}
		jsonInst = []byte(mapf.SanitizeJsonArrayLineBreaks(string(jsonInst)))
		fileName := fmt.Sprintf("%s/%s.json", *output, inst.Name)
		err = ioutil.WriteFile(fileName, jsonInst, 0644)
		if err != nil {
			mapf.Log(1, "Couldn't write %s: %s\n", fileName, err.Error())
			return
		}
		mapf.Log(2, "Wrote %s", fileName)
	}
}
