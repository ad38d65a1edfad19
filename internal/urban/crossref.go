package urban

// DefaultCrossReference is used when no specific (profile, property type) sentence exists.
const DefaultCrossReference = "A compatibilidade entre o perfil urbano identificado e o tipo de imóvel " +
	"analisado indica viabilidade condicionada à adequação do uso pretendido " +
	"e às características do entorno."

type crossKey struct {
	profile      string
	propertyType string
}

var crossReferences = map[crossKey]string{
	{"Residencial de Alto Padrão", "Apartamento usado"}: "Em bairros residenciais de alto padrão, apartamentos usados tendem a " +
		"oferecer boa liquidez e localização privilegiada, porém exigem atenção " +
		"ao nível de ruído urbano e à insolação, especialmente em áreas adensadas.",
	{"Residencial de Alto Padrão", "Casa usada"}: "Casas usadas em bairros de alto padrão costumam apresentar excelente " +
		"conforto residencial e valorização, sendo recomendável atenção ao " +
		"estado de conservação e às regras urbanísticas locais.",
	{"Urbano Consolidado Central", "Apartamento usado"}: "Apartamentos usados em regiões centrais consolidadas oferecem alta " +
		"proximidade de serviços e liquidez, porém podem apresentar níveis " +
		"elevados de ruído e menor conforto térmico.",
	{"Urbano Consolidado Central", "Imóvel comercial"}: "Imóveis comerciais em áreas centrais consolidadas se beneficiam de " +
		"alto fluxo e visibilidade, sendo estratégicos para atividades que " +
		"dependem de acesso e exposição.",
	{"Expansão Urbana Planejada", "Terreno"}: "Terrenos em áreas de expansão urbana planejada apresentam elevado " +
		"potencial de valorização, desde que compatibilizados com o uso " +
		"pretendido e o cronograma de implantação da infraestrutura.",
	{"Expansão Urbana Planejada", "Casa nova"}: "Casas novas em áreas de expansão planejada permitem melhor adequação " +
		"do projeto ao terreno e ao entorno, com potencial de valorização " +
		"associado à consolidação urbana futura.",
	{"Misto Residencial–Comercial", "Apartamento usado"}: "Apartamentos usados em regiões mistas tendem a apresentar boa " +
		"localização e acesso a serviços, exigindo atenção ao conforto " +
		"acústico em horários de maior atividade urbana.",
	{"Zona Especial / Industrial / Logística", "Galpão / logística"}: "Galpões localizados em zonas especiais ou industriais apresentam " +
		"compatibilidade elevada para atividades logísticas, com atenção " +
		"necessária às restrições ambientais e ao tráfego pesado.",
}

// CrossReference returns the narrative for a profile category and property type.
func CrossReference(profile, propertyType string) string {
	if s, ok := crossReferences[crossKey{profile, propertyType}]; ok {
		return s
	}
	return DefaultCrossReference
}

type PropertyType struct {
	Text          string   `json:"texto"`
	Alerts        []string `json:"alertas"`
	Opportunities []string `json:"oportunidades"`
}

var propertyTypes = map[string]PropertyType{
	"Casa usada": {
		Text:          "Em casas usadas, aspectos relacionados ao estado de conservação, conforto acústico, padrão construtivo da época e compatibilidade com a vizinhança exercem forte influência na decisão.",
		Alerts:        []string{"Avaliar estado de conservação da edificação", "Verificar necessidade de reformas ou adequações", "Analisar interferência sonora do entorno"},
		Opportunities: []string{"Possibilidade de negociação de valor", "Localização consolidada", "Boa aceitação para moradia familiar"},
	},
	"Casa nova": {
		Text:          "Casas novas exigem análise da compatibilidade entre o projeto, o padrão construtivo adotado e o contexto urbano, com atenção ao conforto térmico e orientação solar.",
		Alerts:        []string{"Infraestrutura urbana em implantação", "Padrão do entorno ainda em consolidação"},
		Opportunities: []string{"Menor manutenção inicial", "Maior eficiência construtiva", "Potencial de valorização"},
	},
	"Apartamento usado": {
		Text:          "Apartamentos usados demandam atenção especial ao nível de ruído urbano, orientação solar, idade da edificação e padrão de manutenção do condomínio.",
		Alerts:        []string{"Ruído urbano e tráfego", "Insolação limitada em áreas adensadas", "Custos condominiais"},
		Opportunities: []string{"Localização estratégica", "Liquidez para locação", "Proximidade de serviços"},
	},
	"Apartamento novo": {
		Text:          "Apartamentos novos priorizam análise de projeto, ventilação natural, orientação solar e inserção urbana, especialmente em regiões com potencial de adensamento futuro.",
		Alerts:        []string{"Sombreamento futuro por novas edificações", "Adensamento urbano progressivo"},
		Opportunities: []string{"Valorização", "Padrão construtivo atualizado", "Atratividade para locação"},
	},
	"Terreno": {
		Text:          "Na análise de terrenos, a compatibilidade entre o uso pretendido, o perfil do bairro, a vizinhança existente e as restrições legais é determinante para a viabilidade do investimento.",
		Alerts:        []string{"Restrições de uso do solo", "Vizinhança incompatível", "Ruído estrutural do entorno"},
		Opportunities: []string{"Flexibilidade de projeto", "Escolha estratégica de implantação", "Valorização futura"},
	},
	"Imóvel comercial": {
		Text:          "Imóveis comerciais se beneficiam de regiões com maior fluxo, visibilidade e acessibilidade, devendo ser avaliados possíveis conflitos com usos residenciais próximos.",
		Alerts:        []string{"Conflito com áreas residenciais", "Estacionamento limitado", "Restrições urbanísticas"},
		Opportunities: []string{"Alta visibilidade", "Renda ativa", "Boa rotatividade"},
	},
	"Galpão / logística": {
		Text:          "Galpões e imóveis logísticos exigem análise rigorosa de compatibilidade legal e ambiental, priorizando acesso viário e afastamento de áreas residenciais sensíveis.",
		Alerts:        []string{"Ruído elevado", "Tráfego pesado", "Restrições ambientais"},
		Opportunities: []string{"Contratos de longo prazo", "Demanda logística urbana", "Baixa vacância em zonas adequadas"},
	},
}

// PropertyTypeInfo returns guidance for a property type label such as "Casa usada".
func PropertyTypeInfo(name string) (PropertyType, bool) {
	p, ok := propertyTypes[name]
	return p, ok
}
