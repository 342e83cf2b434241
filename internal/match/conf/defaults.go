package conf

// Default returns the built-in configuration. Every key a loaded document may
// omit falls back to these values.
func Default() Config {
	return Config{
		// Longest patterns first so e.g. "°C" wins over a bare "C" mapping.
		// Lower-case variants keep re-normalization of already-normalized
		// text a no-op.
		NormalizationMap: []Mapping{
			{From: "°C", To: "摄氏度"},
			{From: "°c", To: "摄氏度"},
			{From: "℃", To: "摄氏度"},
			{From: "～", To: "-"},
			{From: "~", To: "-"},
			{From: "—", To: "-"},
			{From: "－", To: "-"},
			{From: "×", To: "*"},
			{From: "Φ", To: "dn"},
			{From: "φ", To: "dn"},
		},
		// The first entry is the canonical separator all others collapse to.
		FeatureSplitChars: []string{"+", "\n", ",", "，", ";", "；", "、", "|"},
		IgnoreKeywords: []string{
			"含安装", "含调试", "包安装", "国产", "进口", "原装",
		},
		MetadataKeywords: []string{
			"型号", "通径", "阀体类型", "适用介质", "品牌",
			"规格", "参数", "名称", "类型", "尺寸", "材质",
			"功率", "电压", "电流", "频率", "温度", "压力",
			"流量", "湿度", "浓度", "范围", "量程", "精度", "输出",
			"输入", "信号", "接口", "安装", "防护", "等级",
		},
		SynonymMap: map[string]string{
			"honeywell": "霍尼韦尔",
			"siemens":   "西门子",
			"johnson":   "江森自控",
			"schneider": "施耐德",
			"danfoss":   "丹佛斯",
			"belimo":    "贝尔莫",
			"探测器":       "传感器",
			"变送器":       "传感器",
			"电动阀":       "电动调节阀",
		},
		BrandKeywords: []string{
			"霍尼韦尔", "西门子", "江森自控", "施耐德", "明纬",
			"欧姆龙", "丹佛斯", "贝尔莫", "台达", "正泰", "德力西",
			"abb", "honeywell", "siemens", "johnson", "schneider",
			"omron", "danfoss", "belimo", "delta",
		},
		DeviceTypeKeywords: []string{
			"压力传感器", "温度传感器", "湿度传感器", "co2传感器",
			"传感器", "控制器", "ddc", "阀门", "执行器", "控制柜",
			"电源", "继电器", "网关", "模块", "探测器", "开关",
			"变送器", "温控器", "风阀", "水阀", "电动阀", "调节阀",
			"座阀", "蝶阀", "球阀", "流量计", "压差开关", "液位开关",
			"风机", "水泵", "采集器", "服务器", "电脑", "软件", "系统",
		},
		MediumKeywords: []string{
			"水", "蒸汽", "空气", "风", "油", "烟", "气体",
		},
		LocationWords: []string{
			"室内", "室外", "管道", "风管", "水管", "回风", "送风", "新风",
		},
		// Longest first so "co2" is not split into "co" + "2".
		TechnicalTerms: []string{
			"rs485", "co2", "485", "ddc", "co", "ai", "ao", "di", "do",
		},
		CommonChineseWords: []string{
			"浓度", "探测器", "温度", "湿度", "压力", "流量", "液位", "差压",
		},
		ModelPatterns: []string{
			`[a-z]{2,}[0-9]+`,    // qaa2061
			`[a-z]+-[a-z][0-9]+`, // hscm-r100u
			`[a-z][0-9]{3,}[a-z]`, // v5011n
		},
		ModelExclusionPatterns: []string{
			`^\d+-\d+[a-z]+$`, // ranged parameters: 4-20ma, 0-10v, 0-100ppm
			`^\d+-\d+$`,
		},
		FeatureWeights: WeightConfig{
			DeviceType: 5.0,
			Brand:      3.0,
			Model:      3.0,
			Medium:     2.0,
			Parameter:  1.0,
		},
		Global: GlobalConfig{
			MinFeatureLength:        2,
			MinFeatureLengthChinese: 1,
			DefaultMatchThreshold:   5.0,
			FullwidthToHalfwidth:    true,
			RemoveWhitespace:        true,
			UnifyLowercase:          true,
		},
		IntelligentExtraction: IntelligentExtraction{
			Enabled: true,
			TextCleaning: TextCleaning{
				Enabled:          true,
				FilterRowNumbers: true,
				RowNumberColumns: 1,
				TruncateDelimiters: []NamedPattern{
					{Name: "construction requirements", Pattern: `\d*[、.]?施工要求[:：]?`},
					{Name: "acceptance criteria", Pattern: `\d*[、.]?验收标准[:：]?`},
					{Name: "remark section", Pattern: `\d*[、.]?备注[:：]`},
				},
				NoisePatterns: []NamedPattern{
					{Name: "bid boilerplate", Pattern: `投标[人方].{0,30}?[。;；]`},
					{Name: "warranty boilerplate", Pattern: `质保期?.{0,20}?年[。;；]?`},
				},
			},
			MetadataLabelPatterns: nil,
			ComplexParamDecompose: ComplexParamConfig{
				Enabled: true,
				Patterns: []DecomposePattern{
					{
						Name:    "accuracy spec with range",
						Pattern: `±(\d+(?:\.\d+)?)%@(\d+(?:\.\d+)?)c\.?(\d+(?:\.\d+)?)%rh\((\d+)-(\d+)[a-z]*\)`,
						Emit:    []string{"±$1", "$2", "$3", "$4-$5"},
					},
					{
						Name:    "accuracy spec",
						Pattern: `±(\d+(?:\.\d+)?)%@(\d+(?:\.\d+)?)c\.?(\d+(?:\.\d+)?)%rh`,
						Emit:    []string{"±$1", "$2", "$3"},
					},
				},
			},
			FeatureQualityScoring: QualityScoring{
				Enabled:         true,
				MinQualityScore: 50,
				Rules: ScoringRules{
					IsTechnicalTerm:   20,
					HasNumber:         10,
					HasUnit:           10,
					InDeviceKeywords:  15,
					AppropriateLength: 5,
					IsMetadataLabel:   -30,
					IsCommonWord:      -20,
					TooShort:          -20,
					IsPureNumber:      -20,
					IsPurePunctuation: -30,
				},
			},
		},
		UnitRemoval: UnitRemoval{
			Enabled: true,
			Units: []string{
				"ppm", "ma", "mpa", "kpa", "pa", "rh", "hz", "kw",
				"v", "w", "a",
			},
		},
		MaxCacheSize: 1000,
	}
}
