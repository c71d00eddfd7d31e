package schema

// Record tables, keyed by record code.
var records = map[string]*Table{}

func init() {
	for _, t := range []*Table{
		hdrTable,
		vrqTable,
		vrpTable,
		insTable,
		disTable,
		ratTable,
		movTable,
		tktTable,
		vchTable,
		prgTable,
		prlTable,
		ssnTable,
		vncTable,
		venTable,
		q02Table,
		q17Table,
		q20Table,
		q30Table,
		p30Table,
		q31Table,
		p31Table,
		q32Table,
		p32Table,
		q42Table,
		p42Table,
		kylTable,
		mkyTable,
	} {
		records[t.Name()] = t
	}
}

var (
	hdrTable = newTable("hdr",
		strField(1, "exporting_program"),
		strField(2, "export_datetime"),
		strField(3, "vif_filename"),
		intField(4, "vif_detail"),
	)

	vrqTable = newTable("vrq",
		strField(1, "site_name"),
		strField(2, "packet_id"),
		intField(3, "request_code"),
		strField(4, "comment"),
		strField(8, "auth_info"),
		intField(9, "gateway_type"),
	)

	vrpTable = newTable("vrp",
		strField(1, "site_name"),
		strField(2, "packet_id"),
		intField(3, "response_code"),
		intField(4, "error_number"),
		strField(5, "response_text"),
	)

	insTable = newTable("ins",
		strField(2, "name"),
		strField(3, "group_name"),
		strField(4, "location_code"),
		intField(5, "company_code"),
		intField(6, "location_number"),
		strField(7, "country"),
		strField(8, "name_duplicate"),
		intField(9, "gl_company_index"),
		strField(10, "gl_state_code"),
		strField(11, "gl_location_code"),
		strField(12, "gl_start_date"),
		strField(13, "group_code"),
		strField(14, "abn"),
		strField(15, "state"),
	)

	disTable = newTable("dis",
		strField(2, "name"),
		strField(3, "code"),
		strField(13, "abn"),
	)

	ratTable = newTable("rat",
		intField(1, "id"),
		strField(2, "name"),
		strField(3, "code"),
		strField(4, "synopsis"),
		boolField(5, "restricted_rating"),
	)

	movTable = newTable("mov",
		strField(2, "rating_code"),
		strField(3, "name"),
		strField(4, "abbreviation"),
		strField(5, "movie_code"),
		strField(6, "distributor_code"),
		intField(7, "length"),
		strField(8, "first_date"),
		strField(9, "last_date"),
		strField(10, "end_no_free_list_date"),
		strField(11, "synopsis"),
		strField(12, "gateway_code"),
		strField(13, "english_title"),
		strField(14, "release_date"),
		strField(15, "long_name"),
		intField(16, "reference_number"),
		strField(17, "policy"),
		strField(18, "locations"),
		strField(19, "talent"),
		strField(20, "sound"),
		strField(21, "consumer_advice"),
		strField(22, "genre"),
		strField(23, "sneak_date"),
		intField(24, "number_of_prints"),
		boolField(25, "open_caption"),
		boolField(26, "enabled"),
		boolField(27, "ho_lock"),
		intField(28, "display_format"), // 0=2D, 1=3D, 2=4D
		intField(29, "print_type"),     // 0=film, 1=1.5K, 2=2K, 3=4K
		strField(101, "url"),
	)

	tktTable = newTable("tkt",
		strField(2, "name"),
		strField(3, "code"),
		strField(4, "comment"),
		strField(5, "commencement_date"),
		strField(6, "expiry_date"),
		intField(7, "key_1"),
		intField(8, "key_2"),
		strField(9, "shift_category_code"),
		strField(10, "cashbook_code"),
		intField(11, "points"),
		intField(12, "seats"),
		intField(13, "voucher_per_book"),
		strField(14, "barcode_mask"),
		strField(15, "voucher_title"),
		intField(16, "days_valid"),
		strField(17, "ho_compatability_code"),
		floatField(18, "default_price"),
		intField(19, "touch_key"),
		boolField(20, "print"),
		boolField(21, "sst"),
		boolField(22, "id"),
		boolField(23, "promo"),
		boolField(24, "supress_price"),
		boolField(25, "allowed_for_no_free_list"),
		boolField(26, "allowed_for_restricted_rating"),
		boolField(27, "group_ticket"),
		boolField(28, "allow_duplicate_barcode"),
		boolField(29, "force_receipt"),
		boolField(30, "corporate_voucher"),
		boolField(31, "allow_default_price"),
		intField(33, "special_action"),
		intField(34, "sale_category"),
		intField(35, "tax_status"),
		floatField(36, "tax_rate"),
		intField(37, "gl_reference_code"),
		intField(38, "gateway_index"),
		intField(39, "postcode_sort_code"),
		boolField(40, "allowed_for_sale_on_web"),
		intField(41, "link_code"),
		intField(43, "link_quantity"),
		boolField(44, "wand_barcode_range"),
		intField(45, "aux_1"),
		strField(46, "aux_2"),
		intField(47, "venue_class"),
		intField(48, "agent_id"),
		strField(49, "default_voucher_code"),
		intField(50, "revenue_centre_type"),
		intField(51, "specified_revenue_centre"),
		boolField(52, "bypass_online_barcode_check"),
		boolField(53, "is_gift_card_sale"),
		boolField(54, "ho_lock"),
		boolField(55, "ho_price_lock"),
		intField(56, "abc_reference"),
		boolField(57, "member_bonus_points"),
		boolField(58, "force_barcode_capture"),
		boolField(59, "print_voucher_slips"),
		boolField(60, "is_gift_or_stored_value_card_credit"),
		boolField(61, "capture_member_details"),
		strField(62, "member_program_name"),
		boolField(63, "check_for_membership"),
		boolField(64, "force_membership"),
		strField(65, "upsell_ticket_code"),
		intField(66, "upsell_ticket_quantity"),
		intField(67, "upsell_plu"),
		intField(68, "upsell_plu_quantity"),
		floatField(69, "upsell_plu_price"),
		strField(70, "upsell_plu_uom"),
		intField(71, "link_plu"),
		intField(72, "link_plu_quantity"),
		boolField(73, "membership_renewal"),
	)

	vchTable = newTable("vch",
		strField(2, "name"),
		strField(3, "code"),
		strField(4, "text_line_1"),
		strField(5, "text_line_2"),
		strField(6, "text_line_3"),
		strField(7, "text_line_4"),
		strField(8, "text_line_5"),
		strField(9, "commencement_date"),
		strField(10, "expiry_date"),
		intField(11, "days_valid"),
		boolField(12, "valid_immediately"),
		strField(13, "redemption_expiry_date"),
		intField(14, "redemption_expiry_type"), // 0=variable, 1=fixed, 2=none
		strField(15, "movie_filter"),
		intField(16, "venue_class_filter"),
		boolField(18, "print_barcode"),
		strField(19, "barcode_to_print"),
		boolField(20, "is_parking_voucher"),
		intField(21, "before_session_parking_buffer_minutes"),
		intField(22, "after_session_parking_buffer_minutes"),
		boolField(23, "use_special_title"),
		strField(24, "special_title"),
	)

	prgTable = newTable("prg",
		intField(1, "id"),
		strField(3, "name"),
		strField(4, "code"),
		floatField(10, "fee_per_ticket"),
		intField(11, "ticket_fee_type"),
		floatField(12, "fee_per_transaction"),
		intField(13, "transaction_fee_type"),
		boolField(14, "enabled"),
		boolField(17, "is_3d_price_group"),
		boolField(18, "highlight_price_group_class_in_advertising_display"),
		strField(19, "price_group_class"),
		strField(20, "prompt_to_use_upon_session_entry"),
		strField(21, "ticket_code_used_with_entry_prompt"),
		strField(22, "online_menu"),
	)

	prlTable = newTable("prl",
		strField(1, "price_group_code"),
		strField(2, "ticket_code"),
		strField(3, "voucher_code"),
		floatField(4, "price"),
		boolField(5, "valid"),
		floatField(6, "surcharge"),
		strField(7, "link_ticket_code"),
		intField(8, "link_plu"),
	)

	ssnTable = newTable("ssn",
		intField(1, "session_number"),
		boolField(3, "cancelled"),
		strField(4, "venue_code"),
		strField(5, "movie_code"),
		strField(6, "price_group_code"),
		strField(7, "reserved"),
		strField(8, "start_time"),
		strField(9, "accounting_date"),
		intField(11, "trailers"),
		intField(12, "print"),
		intField(13, "category"), // 0=normal, 1=preview, 2=local sales only, 3=no sales
		intField(14, "head_office_code"),
		intField(15, "map_code"),
		intField(17, "sales_transactions"),
		intField(18, "seats_sold"),
		floatField(19, "sales"),
		floatField(20, "tax_from_sales"),
		intField(21, "refund_transactions"),
		intField(22, "seats_credited"),
		floatField(23, "refunds"),
		floatField(24, "tax_refunded"),
		intField(25, "seats_held_in_unpaid_bookings"),
		intField(26, "session_type"),
		intField(27, "programming_grid_band"),
		intField(28, "enterprise_id"),
		intField(29, "level"),
		strField(30, "plan_code"),
		intField(31, "parent_id"),
		intField(32, "initial_seats"),
		boolField(33, "supress_signage"),
		boolField(34, "supress_external_services"),
		boolField(35, "supress_start_time"),
		boolField(36, "supress_advertising"),
		intField(37, "group_booking_type"),
		strField(38, "notes"),
		strField(40, "programmer_reference"),
		intField(41, "venue_class"),
		strField(42, "creation_datetime"),
		strField(43, "last_modified_datetime"),
		strField(44, "modified_by"),
		intField(45, "times_modified"),
		intField(50, "seats_available_to_3rd_party"),
		boolField(51, "is_rainout"),
		strField(52, "admission_time"),
		intField(53, "admissions"),
		intField(54, "web_allocation"),
		intField(55, "seats_sold_at_box_office"),
		floatField(56, "sales_at_box_office"),
		intField(57, "seats_sold_at_candy_bar"),
		floatField(58, "sales_at_candy_bar"),
		intField(59, "seats_sold_at_web"),
		floatField(60, "sales_at_web"),
		intField(61, "seats_sold_at_kiosk"),
		floatField(62, "sales_at_kiosk"),
		strField(101, "url"),
	)

	vncTable = newTable("vnc",
		intField(1, "index"),
		strField(2, "class_name"),
		intField(3, "colour"),
	)

	venTable = newTable("ven",
		intField(1, "id"),
		strField(2, "venue_name"),
		strField(3, "code"),
		intField(4, "normal_capacity"),
		intField(5, "house_capacity"),
		intField(6, "venue_number"),
		strField(7, "owner_code"),
		intField(8, "venue_class"),
		strField(9, "comment"),
		intField(14, "default_session_type"),
		intField(15, "enterprise_id"),
		intField(16, "default_session_level"),
		strField(17, "parent_code"),
		intField(18, "screen_number"),
		intField(19, "grid_position"),
		boolField(20, "premium_venue"),
		boolField(21, "hearing_support"),
		intField(22, "map_type"),
		strField(23, "default_plan_code"),
		strField(24, "handout_advice"),
		strField(25, "programming_info"),
		intField(26, "colour"),
		strField(27, "site_name"),
		intField(28, "revenue_centre"),
		boolField(30, "digital_projection"),
		boolField(31, "digital_sound"),
		intField(32, "entry_time"), // minutes before the session
		boolField(33, "display_door_message_on_tickets"),
		strField(34, "venue_class_name"),
		strField(35, "lounge_master_code"),
	)

	q02Table = newTable("q02",
		intField(1, "detail_required"),
	)

	q17Table = newTable("q17",
		intField(1, "session_number"),
		intField(2, "workstation_id"),
	)

	q20Table = newTable("q20",
		intField(1, "session_number"),
		intField(2, "availability"),
	)

	// q30 initiates a transaction; tickets follow from key 100101.
	q30Table = newTable("q30",
		intField(1, "workstation_id"),
		strField(2, "user_code"),
		intField(3, "session_number"),
		intField(4, "transaction_type"), // 0=sale, 1=paid booking
		strField(5, "customer_reference"),
		floatField(10, "total_ticket_prices"), // excluding fees
		floatField(11, "total_ticket_fees"),
		floatField(12, "transaction_service_fee"),
		floatField(13, "total_transaction_price"),
		floatField(14, "total_rainout_amount"),
		strField(15, "loyalty_card_number"),
		strField(16, "booking_notes"),
		strField(2001, "patron_first_name"),
		strField(2002, "patron_second_name"),
		strField(2003, "patron_email_address"),
		strField(2004, "patron_contact_phone_number"),
		boolField(2005, "opt_out_1"),
		boolField(2006, "opt_out_2"),
		boolField(2007, "opt_out_3"),
		intField(100001, "ticket_count"),
	)

	p30Table = newTable("p30",
		boolField(2, "seats_split"),
		strField(3, "venue_code"),
		strField(4, "venue_name"),
		strField(5, "movie_code"),
		strField(6, "movie_name"),
		strField(7, "session_start_time"),
		floatField(8, "transaction_fee"),
		floatField(9, "total_ticket_fees"),
		floatField(10, "total_transaction_price"),
		intField(100001, "ticket_count"),
	)

	// q31 commits a transaction; payments follow from key 1101.
	q31Table = newTable("q31",
		intField(2, "workstation_id"),
		strField(3, "external_transaction_reference"),
		floatField(4, "total_amount_paid"),
		strField(5, "booking_key"), // required
		strField(6, "booking_name"),
		strField(7, "customer_phone_number"), // required for web sales
		floatField(8, "payment_surcharge"),
		strField(11, "origin_label"), // WWW, IOS, AND, OTH
		strField(51, "name"),
		strField(52, "email_address"),
		strField(53, "message"),
		intField(1001, "payment_count"),
		strField(2001, "patron_first_name"),
		strField(2002, "patron_second_name"),
		strField(2003, "patron_email_address"),
		strField(2004, "patron_contact_phone_number"),
		boolField(2005, "opt_out_1"),
		boolField(2006, "opt_out_2"),
		boolField(2007, "opt_out_3"),
	)

	p31Table = newTable("p31",
		intField(1, "booking_index"),
		intField(2, "transaction_number"),
		strField(3, "key"),
		strField(4, "alternate_key"),
		intField(5, "pin"),
		strField(6, "ticket_message"),
		intField(100001, "ticket_count"),
	)

	q32Table = newTable("q32",
		intField(1, "key"),
		boolField(2, "use_alternate_key"),
	)

	p32Table = newTable("p32",
		intField(1, "session_number"),
		strField(3, "venue_code"),
		strField(4, "venue_name"),
		strField(5, "movie_code"),
		strField(6, "movie_name"),
		strField(7, "start_time"),
		intField(100001, "ticket_count"),
	)

	q42Table = newTable("q42",
		strField(1, "alternate_booking_key"),
	)

	p42Table = newTable("p42",
		intField(1, "booking_index"),
		intField(2, "transaction_number"),
		strField(3, "key"),
		strField(4, "alternate_booking_key"),
		intField(5, "number_of_tickets"),
		intField(6, "number_of_seats"),
		floatField(7, "transaction_fee"),
		floatField(8, "total_ticket_fees"),
		floatField(9, "total_transaction_price"),
		intField(10, "session_number"),
		strField(11, "customer_reference"),
	)

	kylTable = newTable("kyl")

	mkyTable = newTable("mky")
)
